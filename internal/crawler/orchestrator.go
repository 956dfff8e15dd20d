package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/mention"
)

// Outcome classifies one platform's run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// JobRun is the record of one platform's ingestion attempt.
type JobRun struct {
	Platform  mention.Platform `json:"platform"`
	StartTime time.Time        `json:"startTime"`
	Duration  time.Duration    `json:"duration"`
	Outcome   Outcome          `json:"outcome"`
	Error     string           `json:"error,omitempty"`
}

// BatchResult is the aggregate tally for one orchestrated pass.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Runs      []JobRun      `json:"runs"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
}

// ErrBatchRunning is returned when a manual batch is requested while a
// previous manual batch is still in flight.
var ErrBatchRunning = errors.New("a crawl batch is already running")

// Orchestrator runs the provider once per platform, sequentially, each run
// under its own hard timeout. Total batch time is bounded by
// platforms x timeout plus provider overhead.
type Orchestrator struct {
	provider Provider
	opts     Options
	timeout  time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	manual *BatchHandle
}

// NewOrchestrator creates a crawl orchestrator.
func NewOrchestrator(provider Provider, opts Options, timeout time.Duration, logger zerolog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &Orchestrator{
		provider: provider,
		opts:     opts,
		timeout:  timeout,
		logger:   logger.With().Str("component", "crawler").Logger(),
	}
}

// RunBatch crawls each platform in order, isolating failures per platform.
// It never returns an error: provider faults and timeouts are captured in
// the result, and the next platform always gets its turn.
func (o *Orchestrator) RunBatch(ctx context.Context, platforms []mention.Platform) BatchResult {
	result := BatchResult{
		StartTime: time.Now(),
		Runs:      make([]JobRun, 0, len(platforms)),
	}

	o.logger.Info().
		Int("platforms", len(platforms)).
		Dur("perPlatformTimeout", o.timeout).
		Msg("starting crawl batch")

	for _, platform := range platforms {
		run := o.runPlatform(ctx, platform)
		result.Runs = append(result.Runs, run)

		if run.Outcome == OutcomeSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(result.StartTime)
	o.logger.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("crawl batch finished")

	return result
}

// runPlatform executes one platform under the hard timeout and classifies
// the outcome. Provider panics are contained here as failures.
func (o *Orchestrator) runPlatform(ctx context.Context, platform mention.Platform) JobRun {
	run := JobRun{
		Platform:  platform,
		StartTime: time.Now(),
	}

	o.logger.Info().Str("platform", string(platform)).Msg("crawling platform")

	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	err := o.crawlSafely(pctx, platform)
	cancel()

	run.Duration = time.Since(run.StartTime)

	switch {
	case err == nil:
		run.Outcome = OutcomeSuccess
		o.logger.Info().
			Str("platform", string(platform)).
			Dur("duration", run.Duration).
			Msg("platform crawl succeeded")
	case errors.Is(pctx.Err(), context.DeadlineExceeded):
		run.Outcome = OutcomeTimeout
		run.Error = fmt.Sprintf("timed out after %s", o.timeout)
		o.logger.Error().
			Str("platform", string(platform)).
			Dur("timeout", o.timeout).
			Msg("platform crawl timed out")
	default:
		run.Outcome = OutcomeFailure
		run.Error = err.Error()
		o.logger.Error().
			Err(err).
			Str("platform", string(platform)).
			Dur("duration", run.Duration).
			Msg("platform crawl failed")
	}

	return run
}

func (o *Orchestrator) crawlSafely(ctx context.Context, platform mention.Platform) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl provider panicked: %v", r)
		}
	}()
	return o.provider.Crawl(ctx, platform, o.opts)
}

// BatchHandle tracks a manually triggered batch running in the background.
type BatchHandle struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result BatchResult
}

// Done is closed when the batch has finished.
func (h *BatchHandle) Done() <-chan struct{} {
	return h.done
}

// Cancel stops the in-flight batch; the current platform's provider call is
// terminated through its context.
func (h *BatchHandle) Cancel() {
	h.cancel()
}

// Result returns the batch outcome, and false while the batch is still
// running.
func (h *BatchHandle) Result() (BatchResult, bool) {
	select {
	case <-h.done:
	default:
		return BatchResult{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, true
}

// TriggerAsync starts a batch on its own goroutine and returns immediately
// with a handle the caller can poll. Only one manual batch runs at a time;
// the scheduler's own batches are unaffected by this guard.
func (o *Orchestrator) TriggerAsync(platforms []mention.Platform) (*BatchHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.manual != nil {
		select {
		case <-o.manual.done:
			// previous manual batch finished
		default:
			return nil, ErrBatchRunning
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &BatchHandle{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	o.manual = handle

	go func() {
		defer cancel()
		result := o.RunBatch(ctx, platforms)
		handle.mu.Lock()
		handle.result = result
		handle.mu.Unlock()
		close(handle.done)
	}()

	return handle, nil
}

// ManualStatus reports the state of the most recent manual batch: whether
// one is running, and the last finished result if any.
func (o *Orchestrator) ManualStatus() (running bool, last *BatchResult) {
	o.mu.Lock()
	handle := o.manual
	o.mu.Unlock()

	if handle == nil {
		return false, nil
	}
	result, done := handle.Result()
	if !done {
		return true, nil
	}
	return false, &result
}
