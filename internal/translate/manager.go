package translate

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subtrans/backend/internal/subtitle"
)

const (
	backoffBase    = 500 * time.Millisecond
	backoffCap     = 30 * time.Second
	maxSplitDepth  = 3
	defaultTimeout = 2 * time.Minute
)

// JobStatus is the terminal state of one translation run
type JobStatus string

const (
	StatusCompleted          JobStatus = "completed"
	StatusPartiallyCompleted JobStatus = "partially_completed"
	StatusFailed             JobStatus = "failed"
)

// Report summarizes a finished run. The segment sequence itself carries the
// per-segment results; the report is the job-level rollup.
type Report struct {
	Status     JobStatus      `json:"status"`
	Total      int            `json:"total"`
	Translated int            `json:"translated"`
	Failed     int            `json:"failed"`
	Batches    int            `json:"batches"`
	TokenUsage map[string]int `json:"token_usage"`
	Duration   time.Duration  `json:"duration"`
}

// Progress is called after each batch is assembled, with segment counts
type Progress func(done, total int)

// Manager orchestrates one job: batching, bounded-concurrency dispatch,
// per-error-kind retries, and in-order assembly. It exclusively owns the
// segment and batch lifecycle; providers never touch shared state.
type Manager struct {
	provider Provider
	cfg      ProviderConfig

	sleep      func(context.Context, time.Duration) error
	splitDepth int

	authFailed atomic.Bool
}

// ManagerOption customizes a Manager (test hooks, mostly)
type ManagerOption func(*Manager)

// WithSleep overrides how retry backoff waits are performed
func WithSleep(sleep func(context.Context, time.Duration) error) ManagerOption {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithSplitDepth overrides the binary split recursion bound
func WithSplitDepth(depth int) ManagerOption {
	return func(m *Manager) {
		if depth >= 0 {
			m.splitDepth = depth
		}
	}
}

func NewManager(provider Provider, cfg ProviderConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		provider:   provider,
		cfg:        cfg.Defaults(),
		sleep:      sleepCtx,
		splitDepth: maxSplitDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run translates segs in place and returns the job report. Provider failures
// are resolved at the lowest possible scope: a batch failure marks its own
// segments and the job continues. Run returns a non-nil error only for
// invalid input; everything else is in the report.
func (m *Manager) Run(ctx context.Context, segs []*subtitle.Segment, opts Options, progress Progress) (*Report, error) {
	if err := subtitle.Validate(segs); err != nil {
		return nil, err
	}

	start := time.Now()
	batches := BuildBatches(segs, m.cfg, opts)
	if len(batches) == 0 {
		return &Report{Status: StatusCompleted, TokenUsage: map[string]int{}}, nil
	}

	log.Printf("[translate] dispatching %d segments in %d batches: provider=%s concurrency=%d",
		len(segs), len(batches), m.provider.ID(), m.cfg.ConcurrencyLimit)

	results := make(chan resolvedBatch, len(batches))
	sem := make(chan struct{}, m.cfg.ConcurrencyLimit)
	var wg sync.WaitGroup

	// Dispatch in batch-id order; the semaphore is acquired here so queued
	// batches enter flight FIFO. Once auth fails or the job is cancelled,
	// remaining batches resolve immediately without a network call.
	go func() {
		for _, b := range batches {
			select {
			case <-ctx.Done():
				results <- failedBatch(b, ctx.Err())
				continue
			case sem <- struct{}{}:
			}
			// Checked after the slot is held so a serial job observes an
			// auth failure before the next batch goes out.
			if m.authFailed.Load() {
				<-sem
				results <- failedBatch(b, newError(m.provider.ID(), KindAuth, "credentials rejected; batch not dispatched"))
				continue
			}

			wg.Add(1)
			go func(b Batch) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- m.translateBatch(ctx, b, 0)
			}(b)
		}
		wg.Wait()
		close(results)
	}()

	// Buffer outcomes and assemble strictly in increasing batch-id order so
	// segment output order always equals input order.
	report := &Report{Total: len(segs), Batches: len(batches), TokenUsage: map[string]int{}}
	buffered := make(map[int]resolvedBatch, len(batches))
	next := 0
	done := 0

	for res := range results {
		buffered[res.batch.ID] = res
		for {
			ready, ok := buffered[next]
			if !ok {
				break
			}
			delete(buffered, next)
			translated, failed := ready.apply()
			report.Translated += translated
			report.Failed += failed
			addUsage(report.TokenUsage, ready.usage)
			done += len(ready.batch.Segments)
			if progress != nil {
				progress(done, len(segs))
			}
			next++
		}
	}

	report.Duration = time.Since(start)
	switch {
	case report.Translated == report.Total:
		report.Status = StatusCompleted
	case report.Translated > 0:
		report.Status = StatusPartiallyCompleted
	default:
		report.Status = StatusFailed
	}

	log.Printf("[translate] job finished: status=%s translated=%d/%d batches=%d duration=%s",
		report.Status, report.Translated, report.Total, report.Batches, report.Duration.Round(time.Millisecond))

	return report, nil
}

// translateBatch resolves one batch, applying the retry policy for the error
// kind of each failure until the batch succeeds or is out of options.
func (m *Manager) translateBatch(ctx context.Context, b Batch, depth int) resolvedBatch {
	attempt := 0
	for {
		out, err := m.callOnce(ctx, b)
		if err == nil {
			if verr := validateOutcome(m.provider.ID(), b, out); verr != nil {
				err = verr
			} else {
				return resolvedBatch{
					batch:   b,
					lines:   out.Lines,
					usage:   out.TokenUsage,
					latency: out.Latency.Seconds(),
				}
			}
		}

		kind := KindOf(err)
		switch retryPolicy[kind] {
		case retryNone:
			if kind == KindAuth {
				m.authFailed.Store(true)
			}
			log.Printf("[translate] batch %d failed permanently (%s): %v", b.ID, kind, err)
			return failedBatch(b, err)

		case retrySplit:
			// Split halves are new dispatches, so a cancelled job fails the
			// batch instead of recursing.
			if depth < m.splitDepth && len(b.Segments) > 1 && ctx.Err() == nil {
				log.Printf("[translate] batch %d protocol error, splitting %d segments (depth %d): %v",
					b.ID, len(b.Segments), depth, err)
				return m.splitAndRetry(ctx, b, depth)
			}
			log.Printf("[translate] batch %d failed after splitting (%s): %v", b.ID, kind, err)
			return failedBatch(b, err)

		default: // backoff
			if attempt >= m.cfg.MaxRetries || ctx.Err() != nil {
				log.Printf("[translate] batch %d failed after %d retries (%s): %v", b.ID, attempt, kind, err)
				return failedBatch(b, err)
			}
			delay := backoffDelay(attempt)
			log.Printf("[translate] batch %d %s, retry %d/%d in %s", b.ID, kind, attempt+1, m.cfg.MaxRetries, delay.Round(time.Millisecond))
			if m.sleep(ctx, delay) != nil {
				return failedBatch(b, err)
			}
			attempt++
		}
	}
}

// splitAndRetry halves the batch and recursively translates each half as an
// independent batch, on the theory that a too-large or malformed batch is the
// likely cause of a structural mismatch. Each half keeps the parent's outer
// context and gains the adjacent segments of its sibling.
func (m *Manager) splitAndRetry(ctx context.Context, b Batch, depth int) resolvedBatch {
	mid := len(b.Segments) / 2
	window := m.cfg.Defaults().ContextWindow

	left := Batch{
		ID:            b.ID,
		Segments:      b.Segments[:mid],
		ContextBefore: b.ContextBefore,
		ContextAfter:  head(b.Segments[mid:], window),
		Opts:          b.Opts,
	}
	right := Batch{
		ID:            b.ID,
		Segments:      b.Segments[mid:],
		ContextBefore: tail(b.Segments[:mid], window),
		ContextAfter:  b.ContextAfter,
		Opts:          b.Opts,
	}

	leftRes := m.translateBatch(ctx, left, depth+1)
	rightRes := m.translateBatch(ctx, right, depth+1)
	return mergeResolved(b, leftRes, rightRes)
}

// callOnce performs a single provider call under the per-batch timeout.
// The call context is detached from job cancellation: a request already in
// flight finishes or hits its own timeout, cancellation only keeps new work
// from starting.
func (m *Manager) callOnce(ctx context.Context, b Batch) (Outcome, error) {
	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	out, err := m.provider.Translate(callCtx, b)
	if err != nil {
		return Outcome{}, err
	}
	if out.TokenUsage == nil {
		out.TokenUsage = map[string]int{}
	}
	return out, nil
}

// backoffDelay is exponential with additive jitter. The jitter stays under
// half the step so successive delays are still strictly increasing.
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << uint(attempt)
	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}
	return delay + time.Duration(rand.Int63n(int64(delay/2+1)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
