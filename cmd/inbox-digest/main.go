package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hkomatsu/inbox-digest/internal/config"
	"github.com/hkomatsu/inbox-digest/internal/mail"
	"github.com/hkomatsu/inbox-digest/internal/runner"
	"github.com/hkomatsu/inbox-digest/internal/schedule"
	"github.com/hkomatsu/inbox-digest/internal/server"
	"github.com/hkomatsu/inbox-digest/internal/summarizer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "send one digest and exit")
	flag.Parse()

	// Optional .env for local development.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flow, err := mail.NewFlow(cfg.Mail.CredentialsFile, cfg.Mail.TokenFile, cfg.Mail.RedirectURL)
	if err != nil {
		log.Fatalf("Failed to set up mail auth: %v", err)
	}
	client := mail.NewClient(flow)

	summ := summarizer.NewOpenAISummarizer(cfg.Summarizer.APIKey, cfg.Summarizer.Model, cfg.Summarizer.Temperature)

	r := runner.New(cfg.MaxResults, client, summ)

	// Single-run mode: send one digest and exit.
	if *once {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		log.Println("Sending digest (once mode)...")
		if err := r.SendDigest(ctx, cfg.Digest.NowSubject); err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
		log.Println("Done")
		return
	}

	// Set up context with cancellation for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(cfg.Server.Addr, r, flow, cfg.Digest.NowSubject)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}

	// Run immediately on startup if configured.
	if cfg.RunOnStart {
		log.Println("Running initial digest...")
		if err := r.SendDigest(ctx, cfg.Digest.Subject); err != nil {
			log.Printf("Initial run failed: %v", err)
		}
	}

	sched, err := schedule.Start(cfg.Schedule.Hour, cfg.Schedule.Minute, cfg.Schedule.Timezone, func() {
		log.Println("Cron triggered, sending digest...")
		if err := r.SendDigest(ctx, cfg.Digest.Subject); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Printf("Scheduled daily digest at %02d:%02d %s", cfg.Schedule.Hour, cfg.Schedule.Minute, cfg.Schedule.Timezone)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	// Graceful shutdown: stop the scheduler, then drain the HTTP server.
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
