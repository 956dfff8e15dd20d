// Package retention enforces the data retention window: back up, delete,
// reclaim space, rotate backups.
package retention

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/mention"
)

const backupPrefix = "mentions_backup_"

// Service runs retention cycles against the mention store.
type Service struct {
	db            *sql.DB
	store         *mention.Store
	backupDir     string
	retentionDays int
	backupDays    int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates a retention service. retentionDays and backupDays fall
// back to the policy defaults (14 and 30) when not positive.
func NewService(db *sql.DB, store *mention.Store, backupDir string, retentionDays, backupDays int, logger zerolog.Logger) *Service {
	if retentionDays <= 0 {
		retentionDays = 14
	}
	if backupDays <= 0 {
		backupDays = 30
	}
	return &Service{
		db:            db,
		store:         store,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		backupDays:    backupDays,
		logger:        logger.With().Str("component", "retention").Logger(),
		now:           time.Now,
	}
}

// RunCycle enforces the retention window once and returns how many records
// were deleted. Zero is a valid, common outcome, not an error.
//
// The cycle is deliberately not atomic: the backup is taken before the
// delete, and a record inserted in between with a crawl time older than the
// cutoff (clock skew) could be deleted without appearing in the backup.
// Backup failure is logged and the cycle proceeds to deletion anyway; that
// risk is part of the policy.
func (s *Service) RunCycle(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	s.logger.Info().
		Int("retentionDays", s.retentionDays).
		Time("cutoff", cutoff).
		Msg("starting retention cycle")

	eligible, err := s.store.CountOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("count eligible records: %w", err)
	}
	if eligible == 0 {
		s.logger.Info().Msg("no records past the retention window")
		return 0, nil
	}

	s.logger.Info().Int64("eligible", eligible).Msg("backing up store before deletion")
	if path, err := s.Backup(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("backup failed, proceeding with deletion anyway")
	} else {
		s.logger.Info().Str("path", path).Msg("backup created")
	}

	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired records: %w", err)
	}
	s.logger.Info().Int64("deleted", deleted).Msg("expired records deleted")

	if err := s.store.Vacuum(ctx); err != nil {
		return deleted, fmt.Errorf("vacuum after deletion: %w", err)
	}

	if pruned, err := s.PruneBackups(); err != nil {
		s.logger.Warn().Err(err).Msg("pruning old backups failed")
	} else if pruned > 0 {
		s.logger.Info().Int("pruned", pruned).Int("backupDays", s.backupDays).Msg("old backups pruned")
	}

	return deleted, nil
}

// Backup writes a consistent point-in-time snapshot of the store into the
// backup directory and returns its path. VACUUM INTO snapshots safely while
// the WAL database stays live; a plain file copy would not. The uuid suffix
// keeps names unique even for rapid successive manual runs within the same
// second.
func (s *Service) Backup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s_%s.db",
		backupPrefix,
		s.now().Format("20060102_150405"),
		uuid.NewString()[:8])
	path := filepath.Join(s.backupDir, name)

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("snapshot store: %w", err)
	}
	return path, nil
}

// PruneBackups removes backup artifacts older than the backup retention
// window and returns how many were removed.
func (s *Service) PruneBackups() (int, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -s.backupDays)
	pruned := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.backupDir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("failed to remove old backup")
				continue
			}
			s.logger.Info().Str("name", entry.Name()).Msg("removed old backup")
			pruned++
		}
	}

	return pruned, nil
}
