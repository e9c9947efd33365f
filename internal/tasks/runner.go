package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"

	"go.uber.org/zap"
)

type task struct {
	name string
	fn   func(context.Context) error
}

// Runner executes persistence work off the HTTP request path. A fixed set
// of workers drains a buffered queue and Submit never blocks. Failures are
// logged and swallowed; the triggering response has already gone out.
type Runner struct {
	queue chan task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewRunner(workers, queueSize int) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	r := &Runner{queue: make(chan task, queueSize)}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

func (r *Runner) work() {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(t)
	}
}

func (r *Runner) run(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("background task panicked",
				zap.String("task", t.name),
				zap.String("panic", fmt.Sprintf("%v", rec)))
		}
	}()

	if err := t.fn(context.Background()); err != nil {
		logger.Error("background task failed",
			zap.String("task", t.name),
			zap.Error(err))
	}
}

// Submit enqueues fn for execution. Returns false when the runner is
// closed or the queue is full; the unit is dropped either way and the
// drop is logged, keeping the caller's path non-blocking.
func (r *Runner) Submit(name string, fn func(context.Context) error) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		logger.Warn("task submitted after close, dropping", zap.String("task", name))
		return false
	}

	select {
	case r.queue <- task{name: name, fn: fn}:
		return true
	default:
		logger.Warn("task queue full, dropping", zap.String("task", name))
		return false
	}
}

// Close stops intake and waits for queued and in-flight work to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}
