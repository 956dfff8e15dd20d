package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandpulse/brandpulse/internal/api"
	"github.com/brandpulse/brandpulse/internal/classifier"
	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/crawler"
	"github.com/brandpulse/brandpulse/internal/database"
	"github.com/brandpulse/brandpulse/internal/health"
	"github.com/brandpulse/brandpulse/internal/ingest"
	"github.com/brandpulse/brandpulse/internal/logger"
	"github.com/brandpulse/brandpulse/internal/mention"
	"github.com/brandpulse/brandpulse/internal/retention"
	"github.com/brandpulse/brandpulse/internal/review"
	"github.com/brandpulse/brandpulse/internal/scheduler"
	"github.com/brandpulse/brandpulse/internal/scheduler/tasks"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("db", cfg.Database.Path).
		Strs("platforms", cfg.Crawl.Platforms).
		Int("retentionDays", cfg.Retention.Days).
		Msg("starting brandpulse")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := mention.NewStore(db.Conn(), log.Logger)

	if cfg.Database.SeedSample {
		if err := mention.SeedSampleData(context.Background(), store); err != nil {
			log.Warn().Err(err).Msg("failed to seed sample data")
		}
	}

	deepseek := classifier.NewDeepSeek(cfg.Classifier)
	ingestSvc := ingest.NewService(store, deepseek, log.Logger)

	retentionSvc := retention.NewService(db.Conn(), store, cfg.Database.BackupDir,
		cfg.Retention.Days, cfg.Retention.BackupDays, log.Logger)

	var orch *crawler.Orchestrator
	if cfg.Crawl.Command != "" {
		provider, err := crawler.NewExecProvider(cfg.Crawl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build crawl provider")
		}
		orch = crawler.NewOrchestrator(provider, crawler.Options{
			MaxKeywords:   cfg.Crawl.MaxKeywords,
			MaxNotes:      cfg.Crawl.MaxNotes,
			DeepSentiment: cfg.Crawl.DeepSentiment,
		}, cfg.Crawl.Timeout(), log.Logger)
	} else {
		log.Warn().Msg("no crawl command configured, scheduled and manual crawls disabled")
	}

	platforms := make([]mention.Platform, 0, len(cfg.Crawl.Platforms))
	for _, p := range cfg.Crawl.Platforms {
		platforms = append(platforms, mention.Platform(p))
	}

	reviewSvc := review.NewService(store, orch, review.CrawlTrigger{Platforms: platforms}, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	if err := tasks.RegisterRetentionTask(sched, retentionSvc, &cfg.Retention); err != nil {
		log.Fatal().Err(err).Msg("failed to register retention task")
	}
	if orch != nil {
		if err := tasks.RegisterCrawlTasks(sched, orch, &cfg.Crawl); err != nil {
			log.Fatal().Err(err).Msg("failed to register crawl tasks")
		}
	}

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	healthSvc := health.NewService(db.Conn(), cfg.Database.BackupDir,
		deepseek != nil, orch != nil, log.Logger)

	server := api.NewServer(cfg, store, ingestSvc, retentionSvc, reviewSvc, sched, healthSvc, log.Logger)

	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("brandpulse stopped")
}
