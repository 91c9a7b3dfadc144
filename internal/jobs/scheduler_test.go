package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SampleBias/10x-prompt/internal/health"
)

type fakeJob struct {
	runs    atomic.Int32
	nextRun func() time.Time
	err     error
}

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func (j *fakeJob) GetNextRunTime() time.Time { return j.nextRun() }

func TestScheduler_RunsAndReschedules(t *testing.T) {
	job := &fakeJob{nextRun: func() time.Time { return time.Now().Add(10 * time.Millisecond) }}

	s := NewScheduler()
	s.Register("fake", job)
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if job.runs.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", job.runs.Load())
	}
}

func TestScheduler_StopPreventsFurtherRuns(t *testing.T) {
	job := &fakeJob{nextRun: func() time.Time { return time.Now().Add(5 * time.Millisecond) }}

	s := NewScheduler()
	s.Register("fake", job)
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	after := job.runs.Load()
	time.Sleep(50 * time.Millisecond)
	if job.runs.Load() != after {
		t.Errorf("job ran after Stop: %d -> %d", after, job.runs.Load())
	}
}

func TestScheduler_FailingJobKeepsRescheduling(t *testing.T) {
	job := &fakeJob{
		nextRun: func() time.Time { return time.Now().Add(5 * time.Millisecond) },
		err:     errors.New("probe failed"),
	}

	s := NewScheduler()
	s.Register("fake", job)
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if job.runs.Load() < 2 {
		t.Fatalf("failed job should still reschedule, got %d runs", job.runs.Load())
	}
}

type stubProber struct {
	name  string
	err   error
	calls atomic.Int32
}

func (p *stubProber) Name() string { return p.name }

func (p *stubProber) Probe(ctx context.Context, model string) error {
	p.calls.Add(1)
	return p.err
}

func TestProviderHealthChecker_UpdatesRegistry(t *testing.T) {
	hs := health.NewService(1)
	hs.Register("Groq", "test-model", 20)

	prober := &stubProber{name: "Groq"}
	checker := NewProviderHealthChecker(hs, map[string]health.Prober{"Groq": prober}, time.Minute)

	if err := checker.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prober.calls.Load() != 1 {
		t.Errorf("expected 1 probe, got %d", prober.calls.Load())
	}

	h, _ := hs.Get("Groq", "test-model")
	if h.Status != health.StatusHealthy {
		t.Errorf("expected healthy after successful probe, got %q", h.Status)
	}
}

func TestProviderHealthChecker_SkipsUnavailableAndUnknownProviders(t *testing.T) {
	hs := health.NewService(1)
	hs.RegisterUnavailable("DeepSeek", "deepseek-chat", "missing API key")
	hs.Register("Ghost", "m", 5) // registered but no callable client

	prober := &stubProber{name: "Groq"}
	checker := NewProviderHealthChecker(hs, map[string]health.Prober{"Groq": prober}, time.Minute)

	if err := checker.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prober.calls.Load() != 0 {
		t.Errorf("expected no probes, got %d", prober.calls.Load())
	}
}

func TestProviderHealthChecker_NextRunTime(t *testing.T) {
	hs := health.NewService(1)
	checker := NewProviderHealthChecker(hs, nil, 10*time.Minute)

	first := checker.GetNextRunTime()
	if until := time.Until(first); until > 2*time.Minute {
		t.Errorf("first run should be shortly after startup, got %v", until)
	}

	if err := checker.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := checker.GetNextRunTime()
	if until := time.Until(next); until < 9*time.Minute || until > 11*time.Minute {
		t.Errorf("subsequent runs should follow the interval, got %v", until)
	}
}
