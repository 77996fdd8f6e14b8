package engage

import (
	"context"
	"log"
	"strings"
	"time"
)

// Transport is the chat-platform collaborator. Implementations must be safe
// for concurrent use across channels.
type Transport interface {
	RecentTranscript(channelID string, limit int) ([]TranscriptMessage, error)
	Send(channelID, text string) (messageID string, err error)
	CanSend(channelID string) bool
	Typing(channelID string) error
	ChannelName(channelID string) string
	IsThread(channelID string) bool
}

// Generator is the reply-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// trigger names the path that produced a speaking opportunity, for logs.
type trigger string

const (
	triggerDirected  trigger = "directed"
	triggerOrganic   trigger = "organic"
	triggerProactive trigger = "proactive"
)

const typingRefresh = 8 * time.Second

// Runner owns the read-decide-request-update sequence shared by the
// event-driven path and the proactive scheduler.
type Runner struct {
	cfg       Config
	store     *Store
	locks     *ChannelLocks
	policy    *Policy
	transport Transport
	generator Generator
	clock     Clock
}

// NewRunner wires the decision engine. clock may be nil (wall clock).
func NewRunner(cfg Config, store *Store, policy *Policy, transport Transport, generator Generator, clock Clock) *Runner {
	if clock == nil {
		clock = SystemClock
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		locks:     NewChannelLocks(),
		policy:    policy,
		transport: transport,
		generator: generator,
		clock:     clock,
	}
}

// Store exposes the channel store (for the proactive scheduler and status).
func (r *Runner) Store() *Store { return r.store }

// Policy exposes the policy (for admin mute commands and status).
func (r *Runner) Policy() *Policy { return r.policy }

// HandleEvent processes one incoming activity event: updates the activity
// window and the dormancy machine, then evaluates whether to speak. Events
// for different channels are independent; callers may invoke this
// concurrently.
func (r *Runner) HandleEvent(ctx context.Context, ev Event) {
	if ev.IsAutomated {
		return
	}
	c := r.store.Channel(ev.ChannelID)
	c.SetGuildID(ev.GuildID)

	// The user-gap check needs the human message before this one.
	prevHuman := c.LastHumanActivity()

	c.RecordActivity(ev.ParticipantID, ev.Timestamp, r.cfg.Lookback)
	_, woke := c.ObserveHuman(ev.Timestamp, r.cfg.SleepThreshold, r.cfg.WakeAnnounceWindow)

	now := r.clock.Now()
	directed := r.policy.IsDirectedAddress(c, ev, now)

	ok, reason := r.policy.CanConsiderSpeaking(c, prevHuman, now)
	if !ok {
		log.Printf("[ENGAGE] skip channel=%s reason=%q directed=%v", ev.ChannelID, reason, directed)
		return
	}

	tr := triggerDirected
	if !directed {
		tr = triggerOrganic
		if ok, reason := r.policy.ConversationEligible(c, ev.IsThread); !ok {
			log.Printf("[ENGAGE] skip channel=%s reason=%q", ev.ChannelID, reason)
			return
		}
		if !r.policy.RollOrganic() {
			log.Printf("[ENGAGE] skip channel=%s reason=\"probability roll\"", ev.ChannelID)
			return
		}
	}

	r.attemptReply(ctx, c, tr, woke)
}

// EvaluateProactive runs the organic evaluation for one channel without an
// input event. Called by the proactive scheduler.
func (r *Runner) EvaluateProactive(ctx context.Context, channelID string) {
	c := r.store.Channel(channelID)
	now := r.clock.Now()

	ok, reason := r.policy.CanConsiderSpeaking(c, c.LastHumanActivity(), now)
	if !ok {
		log.Printf("[ENGAGE] proactive skip channel=%s reason=%q", channelID, reason)
		return
	}
	if ok, reason := r.policy.ConversationEligible(c, r.transport.IsThread(channelID)); !ok {
		log.Printf("[ENGAGE] proactive skip channel=%s reason=%q", channelID, reason)
		return
	}
	if !r.policy.RollProactive() {
		return
	}
	r.attemptReply(ctx, c, triggerProactive, false)
}

// attemptReply holds the per-channel advisory lock across generate, send and
// bookkeeping. If the lock is busy the opportunity is dropped. Cooldown and
// session state are updated only after the transport confirmed delivery.
func (r *Runner) attemptReply(ctx context.Context, c *ChannelState, tr trigger, woke bool) {
	if !r.locks.TryAcquire(c.ID) {
		log.Printf("[ENGAGE] drop channel=%s trigger=%s reason=\"reply in flight\"", c.ID, tr)
		return
	}
	defer r.locks.Release(c.ID)

	started := r.clock.Now()

	if !r.transport.CanSend(c.ID) {
		log.Printf("[ENGAGE] abort channel=%s trigger=%s reason=\"no send permission\"", c.ID, tr)
		return
	}

	// Typing indicator runs for the lifetime of this attempt only.
	stopTyping := r.startTypingLoop(ctx, c.ID)
	defer stopTyping()

	raw, err := r.transport.RecentTranscript(c.ID, r.cfg.TranscriptLimit)
	if err != nil {
		terr := &TransportError{Op: "fetch", ChannelID: c.ID, Err: err}
		log.Printf("[ENGAGE] %v trigger=%s elapsed=%v", terr, tr, r.clock.Now().Sub(started))
		return
	}

	req := GenerateRequest{
		ChannelName: r.transport.ChannelName(c.ID),
		Transcript:  BuildTranscript(raw, r.cfg.TranscriptLimit, r.cfg.MessageCharCap),
		Momentum:    c.Stats(),
	}

	reply, err := r.generateWithRetry(ctx, req)
	if err != nil {
		log.Printf("[ENGAGE] %v channel=%s trigger=%s elapsed=%v", err, c.ID, tr, r.clock.Now().Sub(started))
		if r.cfg.FallbackLine == "" {
			return
		}
		reply = r.cfg.FallbackLine
	}

	if woke && r.cfg.WakeLine != "" {
		reply = r.cfg.WakeLine + "\n" + reply
	}

	msgID, err := r.transport.Send(c.ID, reply)
	if err != nil {
		terr := &TransportError{Op: "send", ChannelID: c.ID, Err: err}
		log.Printf("[ENGAGE] %v trigger=%s elapsed=%v", terr, tr, r.clock.Now().Sub(started))
		return
	}

	now := r.clock.Now()
	c.SetLastReplyAt(now)
	c.MarkEngaged(now, msgID)
	log.Printf("[ENGAGE] spoke channel=%s trigger=%s elapsed=%v msg=%s", c.ID, tr, now.Sub(started), msgID)
}

// generateWithRetry bounds the generator call with the configured timeout and
// retries once, immediately, before surfacing the failure.
func (r *Runner) generateWithRetry(ctx context.Context, req GenerateRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		gctx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
		reply, err := r.generator.Generate(gctx, req)
		cancel()
		if err == nil {
			reply = strings.TrimSpace(reply)
			if reply != "" {
				return reply, nil
			}
			err = &GenerationError{Reason: "empty reply"}
		}
		lastErr = err
	}
	return "", &GenerationError{Reason: "retry exhausted", Err: lastErr}
}

// startTypingLoop fires the best-effort typing indicator until the returned
// stop func is called. Cancellation on every exit path is mandatory so the
// periodic timer cannot leak past the decision attempt.
func (r *Runner) startTypingLoop(ctx context.Context, channelID string) func() {
	tctx, cancel := context.WithCancel(ctx)
	go func() {
		_ = r.transport.Typing(channelID)
		ticker := time.NewTicker(typingRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-tctx.Done():
				return
			case <-ticker.C:
				_ = r.transport.Typing(channelID)
			}
		}
	}()
	return cancel
}
