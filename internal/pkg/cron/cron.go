package cron

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RunState is the outcome of a job's most recent run.
type RunState string

const (
	StateIdle    RunState = "idle"
	StateRunning RunState = "running"
	StateOK      RunState = "ok"
	StateError   RunState = "error"
)

// Job is a recurring background task executed on a fixed interval.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

type jobState struct {
	Job
	state     RunState
	message   string
	lastRunAt *time.Time
	nextRunAt time.Time
	mu        sync.Mutex
}

// Snapshot is a point-in-time view of a registered job.
type Snapshot struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	State       RunState   `json:"state"`
	Message     string     `json:"message,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   time.Time  `json:"next_run_at"`
}

// Scheduler runs registered jobs on their intervals.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
}

func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*jobState)}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = &jobState{
		Job:       job,
		state:     StateIdle,
		nextRunAt: time.Now().Add(job.Interval),
	}
}

// Start launches every registered job in its own goroutine. The jobs
// stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, js := range s.jobs {
		go s.loop(ctx, js)
	}
}

func (s *Scheduler) loop(ctx context.Context, js *jobState) {
	for {
		wait := time.Until(js.nextRunAt)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.execute(ctx, js)
			js.mu.Lock()
			js.nextRunAt = time.Now().Add(js.Interval)
			js.mu.Unlock()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.state == StateRunning {
		js.mu.Unlock()
		return
	}
	js.state = StateRunning
	js.mu.Unlock()

	started := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.lastRunAt = &started
	if err != nil {
		js.state = StateError
		js.message = err.Error()
	} else {
		js.state = StateOK
		js.message = ""
	}
	js.mu.Unlock()
}

// Trigger runs a job by name immediately, without waiting for its interval.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	go s.execute(ctx, js)
	return nil
}

// Jobs returns snapshots of all registered jobs.
func (s *Scheduler) Jobs() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.jobs))
	for _, js := range s.jobs {
		js.mu.Lock()
		out = append(out, Snapshot{
			Name:        js.Name,
			Description: js.Description,
			State:       js.state,
			Message:     js.message,
			LastRunAt:   js.lastRunAt,
			NextRunAt:   js.nextRunAt,
		})
		js.mu.Unlock()
	}
	return out
}
