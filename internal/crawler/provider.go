// Package crawler runs per-platform ingestion jobs with hard isolation:
// one platform's failure or hang never blocks the rest of the batch.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/mention"
)

// Options is the shared keyword/volume configuration for one crawl run.
type Options struct {
	MaxKeywords   int
	MaxNotes      int
	DeepSentiment bool
}

// Provider executes one platform's ingestion. Implementations write the
// resulting records into the shared store themselves; the orchestrator only
// receives a success/failure signal. Implementations must honor context
// cancellation so the per-platform timeout can terminate them.
type Provider interface {
	Crawl(ctx context.Context, platform mention.Platform, opts Options) error
}

// ExecProvider invokes an external crawler binary, one process per platform.
// The working directory is passed explicitly on the command instead of
// mutating process state, and the context deadline kills the process.
type ExecProvider struct {
	command  string
	args     []string
	workDir  string
	keywords []string
}

var _ Provider = (*ExecProvider)(nil)

// NewExecProvider builds a provider from crawl configuration.
func NewExecProvider(cfg config.CrawlConfig) (*ExecProvider, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("crawl command not configured")
	}
	return &ExecProvider{
		command:  cfg.Command,
		args:     cfg.Args,
		workDir:  cfg.WorkDir,
		keywords: cfg.Keywords,
	}, nil
}

// Crawl runs the external crawler for one platform.
func (p *ExecProvider) Crawl(ctx context.Context, platform mention.Platform, opts Options) error {
	args := make([]string, 0, len(p.args)+8)
	args = append(args, p.args...)
	if opts.DeepSentiment {
		args = append(args, "--deep-sentiment")
	}
	args = append(args,
		"--platforms", string(platform),
		"--max-keywords", strconv.Itoa(opts.MaxKeywords),
		"--max-notes", strconv.Itoa(opts.MaxNotes),
	)
	if len(p.keywords) > 0 {
		args = append(args, "--keywords", strings.Join(p.keywords, ","))
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Dir = p.workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
			// the cut can land inside a multi-byte rune
			for len(detail) > 0 && !utf8.RuneStart(detail[0]) {
				detail = detail[1:]
			}
		}
		if detail != "" {
			return fmt.Errorf("crawler exited: %w: %s", err, detail)
		}
		return fmt.Errorf("crawler exited: %w", err)
	}
	return nil
}
