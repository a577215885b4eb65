package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MatchingPool/internal/api"
	"MatchingPool/internal/config"
	"MatchingPool/internal/ledger"
	"MatchingPool/internal/notifier"
	"MatchingPool/internal/pool"
	"MatchingPool/internal/scheduler"
	"MatchingPool/internal/settlement"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MatchingPool starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init pool core
	p, err := pool.New(cfg.Pool.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init pool: %v", err)
	}

	// Init ledger
	var led ledger.Ledger
	if cfg.Database.SQLitePath != "" {
		sl, err := ledger.NewSQLiteLedger(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite ledger failed, using noop: %v", err)
			led = ledger.NewNoopLedger()
		} else {
			led = sl
			defer sl.Close()
		}
	} else {
		led = ledger.NewNoopLedger()
	}

	// Init webhook notifier
	var wn *notifier.WebhookNotifier
	if cfg.Notify.WebhookURL != "" {
		wn = notifier.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Proxy)
	}

	// Init settlement client
	var sc *settlement.Client
	if cfg.Settlement.BaseURL != "" {
		sc = settlement.NewClient(cfg.Settlement.BaseURL, cfg.Settlement.APIKey, cfg.Proxy)
		log.Printf("[INFO] settlement gateway: %s", cfg.Settlement.BaseURL)
	} else {
		log.Println("[INFO] no settlement gateway configured, intents stay queued")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, p, led, sc, wn, cfg.Settlement.BatchSize)
	if err := sched.RegisterAll(cfg.Schedule.SettleCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Init API server
	srv := api.NewServer(p, led, wn)
	go func() {
		if err := srv.Run(cfg.Server.ListenAddr); err != nil {
			log.Fatalf("[FATAL] API server: %v", err)
		}
	}()

	log.Println("[INFO] MatchingPool is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] API shutdown: %v", err)
	}
	log.Println("[INFO] MatchingPool stopped")
}
