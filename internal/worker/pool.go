package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobFunc executes one unit of background work. The context carries the
// pool's per-job timeout.
type JobFunc func(ctx context.Context, params map[string]any) error

type jobRequest struct {
	Type   string
	Params map[string]any
}

// WorkingPool runs registered job types on a fixed set of workers. Document
// verification and risk reassessment both execute here so OCR latency never
// holds up an HTTP request.
type WorkingPool struct {
	name       string
	numWorkers int
	jobTimeout time.Duration
	jobChan    chan jobRequest

	mu       sync.RWMutex
	registry map[string]JobFunc
}

func NewWorkingPool(name string, numWorkers, queueSize int, jobTimeout time.Duration) *WorkingPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}

	return &WorkingPool{
		name:       name,
		numWorkers: numWorkers,
		jobTimeout: jobTimeout,
		jobChan:    make(chan jobRequest, queueSize),
		registry:   make(map[string]JobFunc),
	}
}

// RegisterJob binds a job type name to its handler. Submitting an
// unregistered type fails at submit time.
func (p *WorkingPool) RegisterJob(jobType string, fn JobFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry[jobType] = fn
}

// TrySubmit enqueues a job without blocking. It fails when the type is
// unknown or the queue is full; callers decide whether that is fatal.
func (p *WorkingPool) TrySubmit(jobType string, params map[string]any) error {
	p.mu.RLock()
	_, known := p.registry[jobType]
	p.mu.RUnlock()
	if !known {
		return fmt.Errorf("pool %s: no handler registered for job type %q", p.name, jobType)
	}

	select {
	case p.jobChan <- jobRequest{Type: jobType, Params: params}:
		return nil
	default:
		return fmt.Errorf("pool %s: job queue full", p.name)
	}
}

// QueueDepth reports the number of jobs waiting to be picked up.
func (p *WorkingPool) QueueDepth() int {
	return len(p.jobChan)
}

// Start launches the workers and blocks until the context is canceled and
// every worker has exited. The job channel is never closed, so a submit
// that races shutdown is dropped rather than panicking.
func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup

	for i := range p.numWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()
	workerWg.Wait()

	if n := len(p.jobChan); n > 0 {
		slog.Warn("Worker pool stopped with jobs still queued", "pool", p.name, "dropped", n)
	}
	slog.Info("All workers stopped", "pool", p.name)
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	slog.Info("Worker started", "pool", p.name, "worker", id)

	for {
		select {
		case job := <-p.jobChan:
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			slog.Info("Worker exiting", "pool", p.name, "worker", id)
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job jobRequest, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic recovered in job",
				"pool", p.name,
				"worker", workerID,
				"job_type", job.Type,
				"panic", r)
		}
	}()

	p.mu.RLock()
	fn := p.registry[job.Type]
	p.mu.RUnlock()
	if fn == nil {
		slog.Error("No handler for queued job", "pool", p.name, "job_type", job.Type)
		return
	}

	jobCtx := ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	if err := fn(jobCtx, job.Params); err != nil {
		slog.Error("Job failed", "pool", p.name, "worker", workerID, "job_type", job.Type, "error", err)
	}
}
