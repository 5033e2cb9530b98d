package scrolling

import (
	"context"
	"errors"
	"sync"

	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
)

var (
	// ErrWorkerClosed is returned by Submit after Close.
	ErrWorkerClosed = errors.New("capture worker is closed")
	// ErrQueueFull is returned by TrySubmit when no capture can be queued.
	ErrQueueFull = errors.New("capture queue is full")
)

// Outcome is the result of a submitted capture.
type Outcome struct {
	Result *Result
	Err    error
}

// job is one queued capture. done is buffered so the worker never blocks on
// a caller that stopped listening.
type job struct {
	ctx  context.Context
	req  Request
	done chan Outcome
}

// Worker owns a Controller and runs captures on a single background
// goroutine, one at a time, in submission order. This keeps the capture
// delays off the caller's goroutine and guarantees that two runs never
// scroll the screen at once.
type Worker struct {
	ctrl *Controller
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorker starts the background goroutine. queue is how many captures may
// wait behind the running one.
func NewWorker(ctrl *Controller, queue int) *Worker {
	if queue < 0 {
		queue = 0
	}
	w := &Worker{
		ctrl: ctrl,
		jobs: make(chan job, queue),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// run processes jobs sequentially until Close.
func (w *Worker) run() {
	defer w.wg.Done()
	log := logger.WithComponent("capture-worker")

	for j := range w.jobs {
		if err := j.ctx.Err(); err != nil {
			// Cancelled while queued: nothing was captured
			j.done <- Outcome{Err: err}
			continue
		}

		res, err := w.ctrl.Run(j.ctx, j.req)
		if err != nil {
			log.Warn().Err(err).Uint32("window_id", uint32(j.req.Target)).Msg("Capture produced no image")
		}
		j.done <- Outcome{Result: res, Err: err}
	}
}

// Submit queues a capture and returns a channel that receives its outcome.
// It blocks while the queue is full, until ctx is done.
func (w *Worker) Submit(ctx context.Context, req Request) (<-chan Outcome, error) {
	return w.submit(ctx, req, true)
}

// TrySubmit queues a capture like Submit but returns ErrQueueFull instead of
// waiting for room.
func (w *Worker) TrySubmit(ctx context.Context, req Request) (<-chan Outcome, error) {
	return w.submit(ctx, req, false)
}

func (w *Worker) submit(ctx context.Context, req Request, wait bool) (<-chan Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWorkerClosed
	}

	j := job{ctx: ctx, req: req, done: make(chan Outcome, 1)}
	if !wait {
		select {
		case w.jobs <- j:
			return j.done, nil
		default:
			return nil, ErrQueueFull
		}
	}
	select {
	case w.jobs <- j:
		return j.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits a capture and waits for it.
func (w *Worker) Do(ctx context.Context, req Request) (*Result, error) {
	done, err := w.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	out := <-done
	return out.Result, out.Err
}

// Close stops accepting captures, lets queued ones finish and waits for the
// goroutine to exit. Safe to call more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
}
