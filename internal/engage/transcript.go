package engage

import "strings"

// sensitiveTokens is the denylist of credential-like words. A message
// containing any of them is blanked before it reaches the generator.
var sensitiveTokens = []string{
	"password",
	"passwd",
	"api_key",
	"apikey",
	"api key",
	"secret",
	"token",
	"bearer",
	"credential",
	"private key",
}

// BuildTranscript prepares channel history for the generator: keeps the most
// recent limit messages, caps each message at charCap characters and blanks
// messages that look like they carry credentials. Blanked messages stay in
// the transcript (they still carry timing and authorship), except automated
// messages with empty content, which are dropped.
func BuildTranscript(msgs []TranscriptMessage, limit, charCap int) []TranscriptMessage {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]TranscriptMessage, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		if charCap > 0 && len(content) > charCap {
			content = content[:charCap]
		}
		if containsSensitive(content) {
			content = ""
		}
		if m.IsAutomated && content == "" {
			continue
		}
		m.Content = content
		out = append(out, m)
	}
	return out
}

func containsSensitive(content string) bool {
	lower := strings.ToLower(content)
	for _, tok := range sensitiveTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
