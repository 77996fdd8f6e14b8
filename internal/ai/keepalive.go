package ai

import (
	"context"
	"log"
	"time"
)

// RunKeepAlive pings the generation endpoint on a fixed interval so the
// first real reply is not a cold start. It runs in its own goroutine and
// never blocks the decision path; failures are logged and retried on the
// next tick.
func RunKeepAlive(ctx context.Context, c *Client, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			if err := c.WarmUp(pctx); err != nil {
				log.Printf("[WARN] Generator keep-alive ping failed: %v", err)
			}
			cancel()
		}
	}
}
