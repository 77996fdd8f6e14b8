package engage

import "fmt"

// TransportError wraps a message fetch/send failure. The opportunity is
// abandoned and no decision state is mutated.
type TransportError struct {
	Op        string
	ChannelID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed for channel %s: %v", e.Op, e.ChannelID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// GenerationError wraps a reply-generation failure (timeout, upstream error,
// malformed output). Retried once, then abandoned silently.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
