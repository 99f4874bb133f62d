package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull  = errors.New("dispatch queue is full")
	ErrMissingRun = errors.New("job has no run function")
)

// Job is one inbound chat message waiting for a dispatch worker.
type Job struct {
	ID        string
	Connector string
	ChannelID string
	MessageID string
	CreatedAt time.Time
	Run       func(ctx context.Context) error
}

// Observer receives job lifecycle callbacks. Implementations must be safe for
// concurrent use.
type Observer interface {
	OnJobStarted(job Job, workerID int)
	OnJobFinished(job Job, workerID int, elapsed time.Duration, err error)
}

type Engine struct {
	maxConcurrency int
	jobs           chan Job
	logger         *slog.Logger
	observer       Observer
	startOnce      sync.Once
}

// New sizes the buffer at queueDepth jobs per worker.
func New(maxConcurrency, queueDepth int, logger *slog.Logger) *Engine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if queueDepth < 1 {
		queueDepth = 50
	}
	return &Engine{
		maxConcurrency: maxConcurrency,
		jobs:           make(chan Job, maxConcurrency*queueDepth),
		logger:         logger,
	}
}

func (e *Engine) SetObserver(observer Observer) {
	e.observer = observer
}

func (e *Engine) Start(ctx context.Context) error {
	var workers sync.WaitGroup
	e.startOnce.Do(func() {
		for index := 0; index < e.maxConcurrency; index++ {
			workers.Add(1)
			go func(workerID int) {
				defer workers.Done()
				e.worker(ctx, workerID)
			}(index + 1)
		}
	})

	<-ctx.Done()
	workers.Wait()
	return nil
}

func (e *Engine) Enqueue(job Job) (Job, error) {
	if job.Run == nil {
		return Job{}, ErrMissingRun
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	select {
	case e.jobs <- job:
		e.logger.Debug("job queued", "job_id", job.ID, "connector", job.Connector, "channel_id", job.ChannelID)
		return job, nil
	default:
		return Job{}, ErrQueueFull
	}
}

// Pending reports how many jobs are waiting for a worker.
func (e *Engine) Pending() int {
	return len(e.jobs)
}

func (e *Engine) worker(ctx context.Context, workerID int) {
	e.logger.Debug("worker started", "worker_id", workerID)
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("worker stopped", "worker_id", workerID)
			return
		case job := <-e.jobs:
			e.processJob(ctx, workerID, job)
		}
	}
}

func (e *Engine) processJob(ctx context.Context, workerID int, job Job) {
	if e.observer != nil {
		e.observer.OnJobStarted(job, workerID)
	}
	started := time.Now()
	err := runJob(ctx, job)
	elapsed := time.Since(started)
	if err != nil {
		e.logger.Error("job failed", "worker_id", workerID, "job_id", job.ID, "channel_id", job.ChannelID, "message_id", job.MessageID, "error", err)
	}
	if e.observer != nil {
		e.observer.OnJobFinished(job, workerID, elapsed, err)
	}
}

// runJob keeps a panicking handler from taking its worker down.
func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("job panicked: %v", recovered)
		}
	}()
	return job.Run(ctx)
}
