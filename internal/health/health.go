// Package health reports the operational state of the daemon's components.
package health

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Status is the aggregate or per-component health level.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check is the result of probing one component.
type Check struct {
	Component string `json:"component"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
}

// Report is the full health snapshot returned by the ops endpoint.
type Report struct {
	Status    Status    `json:"status"`
	Checks    []Check   `json:"checks"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Service probes the daemon's components on demand. It holds no state;
// every report reflects the moment it was requested.
type Service struct {
	db                   *sql.DB
	backupDir            string
	classifierConfigured bool
	crawlerConfigured    bool
	logger               zerolog.Logger
}

// NewService creates a health service.
func NewService(db *sql.DB, backupDir string, classifierConfigured, crawlerConfigured bool, logger zerolog.Logger) *Service {
	return &Service{
		db:                   db,
		backupDir:            backupDir,
		classifierConfigured: classifierConfigured,
		crawlerConfigured:    crawlerConfigured,
		logger:               logger.With().Str("component", "health").Logger(),
	}
}

// Report runs all component checks and aggregates them. The overall status
// is the worst individual status.
func (s *Service) Report(ctx context.Context) Report {
	checks := []Check{
		s.checkDatabase(ctx),
		s.checkBackupDir(),
		s.checkClassifier(),
		s.checkCrawler(),
	}

	overall := StatusOK
	for _, c := range checks {
		if c.Status == StatusError {
			overall = StatusError
			break
		}
		if c.Status == StatusWarning {
			overall = StatusWarning
		}
	}

	if overall != StatusOK {
		s.logger.Warn().Str("status", string(overall)).Msg("health degraded")
	}

	return Report{
		Status:    overall,
		Checks:    checks,
		CheckedAt: time.Now(),
	}
}

func (s *Service) checkDatabase(ctx context.Context) Check {
	check := Check{Component: "database", Status: StatusOK}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		check.Status = StatusError
		check.Message = err.Error()
	}
	return check
}

// checkBackupDir verifies the backup directory can actually take a write,
// so backup failures surface before the nightly cycle hits them.
func (s *Service) checkBackupDir() Check {
	check := Check{Component: "backups", Status: StatusOK}

	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		check.Status = StatusError
		check.Message = err.Error()
		return check
	}

	probe := filepath.Join(s.backupDir, ".health_probe")
	if err := os.WriteFile(probe, nil, 0o640); err != nil {
		check.Status = StatusError
		check.Message = err.Error()
		return check
	}
	_ = os.Remove(probe)
	return check
}

func (s *Service) checkClassifier() Check {
	check := Check{Component: "classifier", Status: StatusOK}
	if !s.classifierConfigured {
		check.Status = StatusWarning
		check.Message = "no API key configured, new mentions receive fallback labels"
	}
	return check
}

func (s *Service) checkCrawler() Check {
	check := Check{Component: "crawler", Status: StatusOK}
	if !s.crawlerConfigured {
		check.Status = StatusWarning
		check.Message = "no crawl command configured, scheduled and manual crawls are disabled"
	}
	return check
}
