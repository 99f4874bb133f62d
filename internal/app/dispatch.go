package app

import (
	"errors"
	"time"

	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/orchestrator"
)

const dispatchComponent = "dispatch"

// dispatchQueue counts jobs the engine refuses before handing the error back
// to the connector.
type dispatchQueue struct {
	engine  *orchestrator.Engine
	metrics *metrics.Metrics
}

func (q *dispatchQueue) Enqueue(job orchestrator.Job) (orchestrator.Job, error) {
	queued, err := q.engine.Enqueue(job)
	if errors.Is(err, orchestrator.ErrQueueFull) {
		q.metrics.DispatchDropped()
	}
	return queued, err
}

type dispatchObserver struct {
	metrics *metrics.Metrics
}

func (o dispatchObserver) OnJobStarted(orchestrator.Job, int) {}

func (o dispatchObserver) OnJobFinished(_ orchestrator.Job, _ int, elapsed time.Duration, err error) {
	o.metrics.ObserveDispatch(elapsed, err)
}
