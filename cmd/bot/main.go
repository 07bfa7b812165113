package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jisjis-ai/telbotfun/internal/config"
	"github.com/jisjis-ai/telbotfun/internal/health"
	"github.com/jisjis-ai/telbotfun/internal/ledger"
	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/session"
	"github.com/jisjis-ai/telbotfun/internal/signals"
	"github.com/jisjis-ai/telbotfun/internal/store"
	"github.com/jisjis-ai/telbotfun/internal/telegram"
)

const (
	mongoConnectTimeout     = 10 * time.Second
	mongoIndexTimeout       = 5 * time.Second
	mongoSeedTimeout        = 5 * time.Second
	mongoDisconnectTimeout  = 5 * time.Second
	healthShutdownTimeout   = 5 * time.Second
	telegramShutdownTimeout = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
		"timezone": cfg.Timezone.String(),
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	manager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	err = manager.EnsureBaseIndexes(indexCtx)
	cancelIndexes()
	if err != nil {
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}

	st := store.NewMongo(manager)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), mongoSeedTimeout)
	err = st.Seed(seedCtx)
	cancelSeed()
	if err != nil {
		logger.WithError(err).Error("operation flag seed error")
		fmt.Fprintf(os.Stderr, "operation flag seed error: %v\n", err)
		os.Exit(1)
	}

	lg := ledger.New(st, cfg.SignupBonus, cfg.InviteBonus, logger)
	onboarding := session.NewOnboarding(st, lg, logger)
	sessions := session.NewManager()

	tgClient, err := telegram.NewClient(cfg, st, lg, onboarding, sessions, logger)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	scheduler := signals.NewScheduler(st, tgClient, cfg.Timezone, logger)
	healthServer := health.NewServer(cfg.HTTPPort, manager, sessions, logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("health server error")
		}
	}()

	if err := scheduler.Start(signalCtx); err != nil {
		logger.WithError(err).Error("scheduler start error")
		fmt.Fprintf(os.Stderr, "scheduler start error: %v\n", err)
		os.Exit(1)
	}

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	tgClient.AnnounceStartup(telegramCtx)

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	// Stop emitting signals before the transport goes away.
	scheduler.Stop()
	logger.WithField("event", "scheduler_stopped").Info("signal scheduler stopped")

	cancelTelegram()
	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := manager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
