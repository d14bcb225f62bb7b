package translate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/subtrans/backend/internal/subtitle"
)

// fakeProvider routes every Translate call through fn
type fakeProvider struct {
	fn func(ctx context.Context, b Batch) (Outcome, error)
}

func (p *fakeProvider) ID() string { return "fake" }

func (p *fakeProvider) Translate(ctx context.Context, b Batch) (Outcome, error) {
	return p.fn(ctx, b)
}

// echo returns one translated line per segment
func echo(b Batch) (Outcome, error) {
	lines := make([]string, len(b.Segments))
	for i, s := range b.Segments {
		lines[i] = "tr:" + s.Text
	}
	return Outcome{BatchID: b.ID, Lines: lines, TokenUsage: map[string]int{"total_tokens": len(b.Segments)}}, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRunTranslatesAllSegments(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d", "e", "f", "g")
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) { return echo(b) }}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 3})
	report, err := m.Run(context.Background(), segs, Options{TargetLang: "ko"}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", report.Status, StatusCompleted)
	}
	if report.Translated != 7 || report.Failed != 0 || report.Total != 7 {
		t.Fatalf("report counts = %d/%d of %d", report.Translated, report.Failed, report.Total)
	}
	if report.Batches != 3 {
		t.Fatalf("batches = %d, want 3", report.Batches)
	}
	if report.TokenUsage["total_tokens"] != 7 {
		t.Fatalf("token usage = %v", report.TokenUsage)
	}
	for _, s := range segs {
		if s.Status != subtitle.StatusTranslated {
			t.Fatalf("segment %d status = %s", s.Index, s.Status)
		}
		if s.Translated != "tr:"+s.Text {
			t.Fatalf("segment %d translated = %q", s.Index, s.Translated)
		}
	}
}

func TestRunPreservesOrderWithUnevenLatency(t *testing.T) {
	var texts []string
	for i := 0; i < 24; i++ {
		texts = append(texts, fmt.Sprintf("seg %d", i))
	}
	segs := makeSegs(texts...)

	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return echo(b)
	}}

	var mu sync.Mutex
	var progressDone []int
	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 4, ConcurrencyLimit: 6})
	report, err := m.Run(context.Background(), segs, Options{}, func(done, total int) {
		mu.Lock()
		progressDone = append(progressDone, done)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("status = %s", report.Status)
	}

	// Each segment carries its own translation regardless of finish order
	for i, s := range segs {
		if s.Translated != fmt.Sprintf("tr:seg %d", i) {
			t.Fatalf("segment %d holds %q", i, s.Translated)
		}
	}

	// Progress only moves forward, ends at total
	for i := 1; i < len(progressDone); i++ {
		if progressDone[i] <= progressDone[i-1] {
			t.Fatalf("progress went backwards: %v", progressDone)
		}
	}
	if progressDone[len(progressDone)-1] != 24 {
		t.Fatalf("final progress = %d", progressDone[len(progressDone)-1])
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d", "e", "f", "g", "h")
	var inFlight, peak atomic.Int32

	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return echo(b)
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 1, ConcurrencyLimit: 2})
	if _, err := m.Run(context.Background(), segs, Options{}, nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", got)
	}
}

func TestRunIsolatesBatchFailure(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d", "e", "f")
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		if b.ID == 1 {
			return Outcome{}, newError("fake", KindNetwork, "connection reset")
		}
		return echo(b)
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 2, MaxRetries: 0}, WithSleep(noSleep))
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusPartiallyCompleted {
		t.Fatalf("status = %s, want %s", report.Status, StatusPartiallyCompleted)
	}
	if report.Translated != 4 || report.Failed != 2 {
		t.Fatalf("counts = %d translated, %d failed", report.Translated, report.Failed)
	}
	for i, s := range segs {
		wantFailed := i == 2 || i == 3
		if (s.Status == subtitle.StatusFailed) != wantFailed {
			t.Fatalf("segment %d status = %s", i, s.Status)
		}
		if wantFailed && s.Err == "" {
			t.Fatalf("failed segment %d carries no error", i)
		}
	}
}

func TestRunAuthErrorStopsDispatch(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d", "e", "f")
	var calls atomic.Int32

	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		calls.Add(1)
		return Outcome{}, newError("fake", KindAuth, "bad key")
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 2, ConcurrencyLimit: 1, MaxRetries: 3}, WithSleep(noSleep))
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", report.Status, StatusFailed)
	}
	// Auth failures are never retried, and with serial dispatch the first
	// failure keeps later batches from reaching the provider at all.
	if got := calls.Load(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	for _, s := range segs {
		if s.Status != subtitle.StatusFailed {
			t.Fatalf("segment %d status = %s", s.Index, s.Status)
		}
	}
}

func TestRunBackoffDelaysIncrease(t *testing.T) {
	segs := makeSegs("a")
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		return Outcome{}, newError("fake", KindRateLimit, "slow down")
	}}

	var delays []time.Duration
	m := NewManager(provider, ProviderConfig{MaxRetries: 3}, WithSleep(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusFailed {
		t.Fatalf("status = %s", report.Status)
	}
	if len(delays) != 3 {
		t.Fatalf("slept %d times, want 3", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] <= delays[i-1] {
			t.Fatalf("delays not increasing: %v", delays)
		}
	}
}

func TestRunSplitsOnProtocolError(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d")
	var calls atomic.Int32

	// Misbehave for batches larger than one segment; the split recursion
	// should drive each down to singletons and succeed.
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		calls.Add(1)
		if len(b.Segments) > 1 {
			return Outcome{BatchID: b.ID, Lines: []string{"only one line"}}, nil
		}
		return echo(b)
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 4}, WithSleep(noSleep))
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", report.Status)
	}
	for i, s := range segs {
		if s.Translated != "tr:"+s.Text {
			t.Fatalf("segment %d translated = %q", i, s.Translated)
		}
	}
	// 4-seg batch, two 2-seg halves, four singletons
	if got := calls.Load(); got != 7 {
		t.Fatalf("provider called %d times, want 7", got)
	}
}

func TestRunSplitDepthBound(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d")
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		return Outcome{BatchID: b.ID, Lines: nil}, nil
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 4}, WithSleep(noSleep), WithSplitDepth(1))
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", report.Status)
	}
	for _, s := range segs {
		if s.Status != subtitle.StatusFailed {
			t.Fatalf("segment %d status = %s", s.Index, s.Status)
		}
	}
}

func TestRunCancellationKeepsFinishedWork(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d", "e", "f")
	ctx, cancel := context.WithCancel(context.Background())

	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		if b.ID == 0 {
			out, _ := echo(b)
			cancel()
			return out, nil
		}
		return Outcome{}, ctx.Err()
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 2, ConcurrencyLimit: 1, MaxRetries: 0}, WithSleep(noSleep))
	report, err := m.Run(ctx, segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusPartiallyCompleted {
		t.Fatalf("status = %s, want %s", report.Status, StatusPartiallyCompleted)
	}
	if report.Translated != 2 {
		t.Fatalf("translated = %d, want 2", report.Translated)
	}
	for i, s := range segs[:2] {
		if s.Status != subtitle.StatusTranslated {
			t.Fatalf("finished segment %d lost its result", i)
		}
	}
}

func TestRunCancelLeavesInFlightCallRunning(t *testing.T) {
	segs := makeSegs("a", "b")
	ctx, cancel := context.WithCancel(context.Background())

	// The provider cancels the job while its own call is in flight. The call
	// context must stay live so the result still lands.
	provider := &fakeProvider{fn: func(callCtx context.Context, b Batch) (Outcome, error) {
		cancel()
		if err := callCtx.Err(); err != nil {
			return Outcome{}, err
		}
		return echo(b)
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 2}, WithSleep(noSleep))
	report, err := m.Run(ctx, segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", report.Status, StatusCompleted)
	}
	for i, s := range segs {
		if s.Status != subtitle.StatusTranslated {
			t.Fatalf("in-flight segment %d lost its result: %s", i, s.Status)
		}
	}
}

func TestRunCancelStopsSplitRecursion(t *testing.T) {
	segs := makeSegs("a", "b", "c", "d")
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	provider := &fakeProvider{fn: func(callCtx context.Context, b Batch) (Outcome, error) {
		calls.Add(1)
		cancel()
		return Outcome{BatchID: b.ID, Lines: []string{"wrong count"}}, nil
	}}

	m := NewManager(provider, ProviderConfig{MaxBatchSegments: 4}, WithSleep(noSleep))
	report, err := m.Run(ctx, segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", report.Status, StatusFailed)
	}
	// The protocol error would normally split; cancellation keeps the halves
	// from being dispatched.
	if got := calls.Load(); got != 1 {
		t.Fatalf("provider called %d times after cancel, want 1", got)
	}
}

func TestRunEmptyInput(t *testing.T) {
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		t.Fatal("provider should not be called")
		return Outcome{}, nil
	}}

	m := NewManager(provider, ProviderConfig{})
	report, err := m.Run(context.Background(), nil, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("status = %s", report.Status)
	}
	if report.TokenUsage == nil {
		t.Fatal("token usage must not be nil")
	}
}

func TestRunRejectsInvalidSequence(t *testing.T) {
	segs := makeSegs("a", "b")
	segs[1].Index = 5

	m := NewManager(&fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) { return echo(b) }}, ProviderConfig{})
	if _, err := m.Run(context.Background(), segs, Options{}, nil); err == nil {
		t.Fatal("expected error for non-contiguous indices")
	}
}

func TestRunEmptyLineFallsBackToSource(t *testing.T) {
	segs := makeSegs("keep me")
	provider := &fakeProvider{fn: func(ctx context.Context, b Batch) (Outcome, error) {
		return Outcome{BatchID: b.ID, Lines: []string{"  "}}, nil
	}}

	m := NewManager(provider, ProviderConfig{})
	report, err := m.Run(context.Background(), segs, Options{}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("status = %s", report.Status)
	}
	if segs[0].Translated != "keep me" {
		t.Fatalf("translated = %q, want source fallback", segs[0].Translated)
	}
}

func TestKindOfUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", newError("fake", KindRateLimit, "429"))
	if got := KindOf(wrapped); got != KindRateLimit {
		t.Fatalf("KindOf = %s, want %s", got, KindRateLimit)
	}
	if got := KindOf(context.DeadlineExceeded); got != KindTimeout {
		t.Fatalf("KindOf deadline = %s", got)
	}
	if got := KindOf(errors.New("mystery")); got != KindNetwork {
		t.Fatalf("KindOf unknown = %s", got)
	}
}
