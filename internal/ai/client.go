package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wallflower/internal/engage"
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint and
// implements engage.Generator. A token-bucket limiter caps how fast eligible
// opportunities may reach the upstream; a rejected token is a generation
// failure, not a wait, so the decision path never blocks on the limiter.
type Client struct {
	endpoint string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a Client. callsPerMinute bounds upstream traffic;
// zero or negative disables the limiter.
func NewClient(endpoint, model string, timeout time.Duration, callsPerMinute int) *Client {
	var lim *rate.Limiter
	if callsPerMinute > 0 {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(callsPerMinute)), 1)
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		limiter:  lim,
	}
}

// Generate builds the prompt from the transcript and momentum stats and
// returns the cleaned reply text.
func (c *Client) Generate(ctx context.Context, req engage.GenerateRequest) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", &engage.GenerationError{Reason: "rate limited"}
	}
	messages := buildMessages(req)
	reply, err := c.complete(ctx, messages)
	if err != nil {
		return "", &engage.GenerationError{Reason: "upstream", Err: err}
	}
	reply = cleanReply(reply)
	if isGarbageResponse(reply) {
		return "", &engage.GenerationError{Reason: "malformed output"}
	}
	return reply, nil
}

// WarmUp issues a tiny out-of-band completion so the first real reply does
// not hit a cold upstream. Not counted against the limiter.
func (c *Client) WarmUp(ctx context.Context) error {
	_, err := c.complete(ctx, []Message{
		{Role: "system", Content: "Reply with the single word: ok"},
		{Role: "user", Content: "ok?"},
	})
	if err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}
	return nil
}

func buildMessages(req engage.GenerateRequest) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a casual participant in the chat channel %q.\n", req.ChannelName)
	fmt.Fprintf(&b, "Recent momentum: %d messages from %d people.\n", req.Momentum.Count, req.Momentum.DistinctParticipants)
	b.WriteString("Write one short, natural reply that fits the ongoing conversation. No preamble, no quotes.")

	msgs := make([]Message, 0, len(req.Transcript)+1)
	msgs = append(msgs, Message{Role: "system", Content: b.String()})
	for _, m := range req.Transcript {
		role := "user"
		content := m.Content
		if m.IsAutomated {
			role = "assistant"
		} else {
			content = m.Author + ": " + content
		}
		msgs = append(msgs, Message{Role: role, Content: content})
	}
	return msgs
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	payload := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body))
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", fmt.Errorf("endpoint returned html")
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
