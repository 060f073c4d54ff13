package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/ws"
)

// ProgressCeiling caps time-based progress below 100 so the terminal
// result is visually distinct from a mid-flight tick.
const ProgressCeiling = 90

// Handle cancels one running progress loop. Cancel is idempotent; the
// owner must call it once the terminal result is ready or the owning
// connection disconnects, otherwise the ticker keeps running.
type Handle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Cancel stops the loop and waits for it to exit. A tick already in
// flight finishes its send first, so once Cancel returns no further
// progress can be delivered. Safe to call any number of times.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Emitter runs per-job progress tickers that push monotonically
// increasing progress values to the owning connection.
type Emitter struct {
	conns  ConnRegistry
	store  *Store
	logger logger.Logger
}

// NewEmitter creates an emitter pushing through the given registry.
func NewEmitter(conns ConnRegistry, store *Store, log logger.Logger) *Emitter {
	return &Emitter{
		conns:  conns,
		store:  store,
		logger: log,
	}
}

// Start launches a ticker for one job and returns its handle. Each tick
// raises the job's progress by step; once the next increment would pass
// the ceiling, ticks stop producing sends but the timer itself keeps
// running until the handle is cancelled.
func (e *Emitter) Start(jobID, connID, imageID string, interval time.Duration, step int) *Handle {
	h := &Handle{stop: make(chan struct{}), done: make(chan struct{})}
	go e.run(h, jobID, connID, imageID, interval, step)
	return h
}

func (e *Emitter) run(h *Handle, jobID, connID, imageID string, interval time.Duration, step int) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	progress := 0
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if progress+step > ProgressCeiling {
				continue
			}
			progress += step
			e.store.SetProgress(jobID, progress)

			err := e.conns.Send(context.Background(), connID, ws.AnalysisProgress(jobID, imageID, progress))
			if err != nil && !errors.Is(err, ws.ErrClosed) {
				e.logger.Debug("progress push failed",
					logger.String("job_id", jobID),
					logger.Error(err))
			}
		}
	}
}
