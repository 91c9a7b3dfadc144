package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job interface that all scheduled jobs must implement
type Job interface {
	Run(ctx context.Context) error
	GetNextRunTime() time.Time
}

// Scheduler manages and runs scheduled jobs on their own timers
type Scheduler struct {
	jobs    map[string]Job
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new job scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]Job),
		timers: make(map[string]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job to the scheduler
func (s *Scheduler) Register(name string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[name] = job
	slog.Info("scheduler: registered job", "job", name)
}

// Start begins running all registered jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	slog.Info("scheduler: starting", "jobs", len(s.jobs))
	for name, job := range s.jobs {
		s.scheduleJob(name, job)
	}
}

// scheduleJob arms the timer for a single job; callers hold s.mu
func (s *Scheduler) scheduleJob(name string, job Job) {
	nextRun := job.GetNextRunTime()
	duration := time.Until(nextRun)
	if duration < 0 {
		duration = 0
	}

	slog.Info("scheduler: job scheduled",
		"job", name, "next_run", nextRun.Format(time.RFC3339), "in", duration)

	s.timers[name] = time.AfterFunc(duration, func() {
		s.runJob(name, job)
	})
}

func (s *Scheduler) runJob(name string, job Job) {
	s.wg.Add(1)
	defer s.wg.Done()

	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		slog.Error("scheduler: job failed", "job", name, "error", err, "elapsed", time.Since(start))
	} else {
		slog.Info("scheduler: job complete", "job", name, "elapsed", time.Since(start))
	}

	// reschedule unless we are shutting down
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.ctx.Err() == nil {
		s.scheduleJob(name, job)
	}
}

// Stop cancels all timers and waits for in-flight jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.running = false
	for name, timer := range s.timers {
		timer.Stop()
		delete(s.timers, name)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	slog.Info("scheduler: stopped")
}
