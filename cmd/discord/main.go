package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wallflower/internal/ai"
	"wallflower/internal/config"
	"wallflower/internal/discord"
	"wallflower/internal/engage"
	"wallflower/internal/status"
	v "wallflower/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal("[ERR] Configuration error: ", err)
	}

	generator := ai.NewClient(cfg.GenEndpoint, cfg.GenModel, cfg.GenTimeout, cfg.GenCallsPerMinute)

	engCfg := cfg.Engage()
	store := engage.NewStore(engage.SystemClock, engCfg.MaxChannels)
	policy := engage.NewPolicy(engCfg, nil)
	presence := engage.NewPresenceSet(cfg.PrivilegedUsers)

	bot := discord.NewBot(cfg, nil, presence, generator)
	runner := engage.NewRunner(engCfg, store, policy, bot.Transport(), generator, engage.SystemClock)
	bot.SetRunner(runner)

	scheduler := engage.NewScheduler(runner, presence, engCfg.ProactiveInterval)
	go scheduler.Run(ctx)
	go ai.RunKeepAlive(ctx, generator, cfg.GenKeepAlive)
	go status.RunServer(ctx, cfg, policy, store)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Exited cleanly")
}
