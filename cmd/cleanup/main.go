// Command cleanup runs one retention cycle and exits. It exists so the
// retention policy can be applied manually or from an external cron,
// independent of the long-running daemon.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/database"
	"github.com/brandpulse/brandpulse/internal/logger"
	"github.com/brandpulse/brandpulse/internal/mention"
	"github.com/brandpulse/brandpulse/internal/retention"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Close()

	if _, err := os.Stat(cfg.Database.Path); err != nil {
		log.Error().Str("path", cfg.Database.Path).Msg("database file does not exist")
		os.Exit(1)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		os.Exit(1)
	}

	ctx := context.Background()
	store := mention.NewStore(db.Conn(), log.Logger)

	logSummary(ctx, store, log, "store before cleanup")

	svc := retention.NewService(db.Conn(), store, cfg.Database.BackupDir,
		cfg.Retention.Days, cfg.Retention.BackupDays, log.Logger)

	deleted, err := svc.RunCycle(ctx)
	if err != nil {
		log.Error().Err(err).Msg("retention cycle failed")
		os.Exit(1)
	}

	logSummary(ctx, store, log, "store after cleanup")
	log.Info().Int64("deleted", deleted).Msg("cleanup finished")
}

func logSummary(ctx context.Context, store *mention.Store, log *logger.Logger, msg string) {
	summary, err := store.GetSummary(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read store summary")
		return
	}
	evt := log.Info().Int64("total", summary.Total)
	if summary.Earliest != nil {
		evt = evt.Time("earliest", *summary.Earliest)
	}
	if summary.Latest != nil {
		evt = evt.Time("latest", *summary.Latest)
	}
	evt.Msg(msg)
}
