package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"netpulse/app/internal/alerts"
	"netpulse/app/internal/checker"
	"netpulse/app/internal/config"
	"netpulse/app/internal/database"
	"netpulse/app/internal/geo"
	"netpulse/app/internal/handlers"
	"netpulse/app/internal/monitor"
	"netpulse/app/internal/ratelimit"
	"netpulse/app/internal/sink"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the activity journal
	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locator := geo.New(geo.Options{
		BaseURL:  cfg.IPInfoBaseURL,
		Token:    cfg.IPInfoToken,
		CacheTTL: cfg.GeoCacheTTL,
	})
	defer locator.Close()

	prober := checker.New(checker.Options{
		Mode:       cfg.ProbeMode,
		Timeout:    cfg.ProbeTimeout,
		TCPPort:    cfg.ProbeTCPPort,
		Privileged: cfg.ProbePrivileged,
	})

	notifier := alerts.NewNotifier(alerts.Config{
		Cooldown:      cfg.AlertCooldown,
		MaxPerHour:    cfg.AlertEmailsPerHour,
		DashboardURL:  cfg.DashboardURL,
		BrevoAPIKey:   cfg.BrevoAPIKey,
		EmailFrom:     cfg.AlertEmailFrom,
		EmailTo:       cfg.AlertEmailTo,
		WebhookURL:    cfg.WebhookURL,
		WebhookSecret: cfg.WebhookSecret,
	})
	if !notifier.Enabled() {
		log.Println("No alert channels configured, threshold alerts stay on the dashboard")
	}

	dashboard := sink.NewDashboard()
	hub := sink.NewHub(0)
	journal := database.NewJournal()

	mgr := monitor.NewManager(locator, prober, sink.Fanout{dashboard, hub, journal, notifier}, monitor.Options{
		Interval: cfg.PollInterval,
		Journal:  journal,
	})

	journal.Record(database.LogLevelInfo, database.LogCategorySystem, "", "Server starting",
		"probe="+prober.Mode()+" interval="+cfg.PollInterval.String())

	startTargets(ctx, mgr, cfg.Targets)
	go runLogPruner(ctx, cfg.LogRetention)

	limiter := ratelimit.New(ratelimit.Config{
		TokensPerMinute: cfg.StartRatePerMinute,
		MaxTokens:       cfg.StartRatePerMinute,
		ErrorMessage:    "Too many requests. Please slow down.",
	})
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.Deps{
		Sessions:  mgr,
		Prober:    prober,
		Locator:   locator,
		Dashboard: dashboard,
		Hub:       hub,
		Limiter:   limiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	// Live event streams end once the hub closes
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: HTTP shutdown: %v", err)
	}

	mgr.Close()
	notifier.Close()
	journal.Record(database.LogLevelInfo, database.LogCategorySystem, "", "Server stopped", "")
}

// startTargets begins monitoring the servers listed in the targets file
func startTargets(ctx context.Context, mgr *monitor.Manager, targets []config.Target) {
	for _, t := range targets {
		if _, err := mgr.Start(ctx, t.Identifier); err != nil {
			log.Printf("Warning: Failed to start target %s: %v", t.Identifier, err)
			continue
		}
		if t.Threshold != nil {
			mgr.SetThreshold(t.Identifier, *t.Threshold)
		}
	}
	if len(targets) > 0 {
		log.Printf("Started %d target(s) from targets file", len(mgr.Sessions()))
	}
}

// runLogPruner keeps the activity journal bounded
func runLogPruner(ctx context.Context, keep int) {
	if keep <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := database.PruneLogs(keep); err != nil {
				log.Printf("Warning: Failed to prune logs: %v", err)
			}
		}
	}
}
