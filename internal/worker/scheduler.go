package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ScheduledJob names a registered job type the scheduler submits each tick.
type ScheduledJob struct {
	Type   string
	Params map[string]any
}

// JobScheduler submits its jobs to a pool on a fixed interval. The periodic
// risk reassessment sweep for approved suppliers runs through one of these.
type JobScheduler struct {
	Name     string
	interval time.Duration
	pool     *WorkingPool

	mu   sync.RWMutex
	jobs []ScheduledJob
}

func NewJobScheduler(name string, interval time.Duration, pool *WorkingPool) *JobScheduler {
	return &JobScheduler{
		Name:     name,
		interval: interval,
		pool:     pool,
		jobs:     make([]ScheduledJob, 0),
	}
}

func (s *JobScheduler) AddJob(job ScheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Run blocks until the context is canceled.
func (s *JobScheduler) Run(ctx context.Context) {
	slog.Info("Scheduler running", "scheduler", s.Name, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.submitJobs()

		case <-ctx.Done():
			slog.Info("Scheduler shutting down", "scheduler", s.Name)
			return
		}
	}
}

func (s *JobScheduler) submitJobs() {
	s.mu.RLock()
	jobsToRun := make([]ScheduledJob, len(s.jobs))
	copy(jobsToRun, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobsToRun {
		if err := s.pool.TrySubmit(job.Type, job.Params); err != nil {
			slog.Warn("Failed to submit scheduled job", "scheduler", s.Name, "job_type", job.Type, "error", err)
			continue
		}
		slog.Info("Scheduled job submitted", "scheduler", s.Name, "job_type", job.Type)
	}
}
