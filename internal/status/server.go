package status

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wallflower/internal/config"
	"wallflower/internal/engage"
	"wallflower/internal/version"
)

// RunServer serves the read-only status snapshot: uptime, mute state and the
// configured thresholds. Monitoring only, no mutation. Blocks until ctx is
// cancelled; run in a goroutine.
func RunServer(ctx context.Context, cfg *config.Config, policy *engage.Policy, store *engage.Store) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"app":              version.AppName,
			"version":          version.Version,
			"uptime":           version.Uptime().String(),
			"muted":            policy.Muted(),
			"tracked_channels": store.Len(),
			"thresholds": gin.H{
				"lookback":              cfg.Lookback.String(),
				"sleep_threshold":       cfg.SleepThreshold.String(),
				"wake_announce_window":  cfg.WakeAnnounceWindow.String(),
				"min_reply_gap":         cfg.MinReplyGap.String(),
				"min_user_gap":          cfg.MinUserGap.String(),
				"engagement_linger":     cfg.LingerDuration.String(),
				"momentum_min_msgs":     cfg.MomentumMinMessages,
				"min_distinct_speakers": cfg.MinDistinctSpeakers,
				"reply_probability":     cfg.ReplyProbability,
				"proactive_probability": cfg.ProactiveProbability,
				"proactive_interval":    cfg.ProactiveInterval.String(),
			},
		})
	})

	srv := &http.Server{Addr: cfg.StatusAddr, Handler: r}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down status server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] Status server listening on %s", cfg.StatusAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		// Log the error but do NOT call log.Fatal — that would kill the whole process.
		log.Printf("[ERR] Status server exited: %v", err)
	}
}
