// Package worker runs operations on a fixed set of goroutines fed by a bounded queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spherical/docconv/internal/observability"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is one unit of work. The context is the submitter's.
type Task func(ctx context.Context)

type job struct {
	id   string
	ctx  context.Context
	run  Task
	enqd time.Time
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Skipped   int64 `json:"skipped"`
	Panics    int64 `json:"panics"`
}

// Pool is a fixed-size worker set reading from a fixed-size queue.
type Pool struct {
	size   int
	queue  chan job
	group  *errgroup.Group
	logger *observability.Logger

	mu     sync.RWMutex
	closed bool

	active    atomic.Int64
	completed atomic.Int64
	skipped   atomic.Int64
	panics    atomic.Int64
}

// NewPool starts size workers behind a queue of queueSize pending tasks.
func NewPool(size, queueSize int, logger *observability.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = observability.Nop()
	}

	p := &Pool{
		size:   size,
		queue:  make(chan job, queueSize),
		group:  &errgroup.Group{},
		logger: logger.WithOperation("worker_pool"),
	}

	for i := 0; i < size; i++ {
		p.group.Go(func() error {
			for j := range p.queue {
				p.run(j)
			}
			return nil
		})
	}

	p.logger.Debug().Int("workers", size).Int("queue", queueSize).Msg("Worker pool started")
	return p
}

// Submit enqueues t. It blocks while the queue is full and gives up when ctx ends.
// A task whose context has ended before a worker picks it up is skipped.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	j := job{id: uuid.NewString(), ctx: ctx, run: t, enqd: time.Now()}
	select {
	case p.queue <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(j job) {
	log := p.logger.WithStr("task_id", j.id)
	if j.ctx.Err() != nil {
		p.skipped.Add(1)
		log.Debug().Msg("Skipping cancelled task")
		return
	}

	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.panics.Add(1)
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Task panicked")
		}
	}()

	log.Debug().Dur("queued_for", time.Since(j.enqd)).Msg("Task started")

	j.run(j.ctx)
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.size,
		Queued:    len(p.queue),
		Active:    p.active.Load(),
		Completed: p.completed.Load(),
		Skipped:   p.skipped.Load(),
		Panics:    p.panics.Load(),
	}
}

// Close stops accepting tasks, drains the queue and waits for workers to exit.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	err := p.group.Wait()
	p.logger.Debug().Int64("completed", p.completed.Load()).Msg("Worker pool stopped")
	return err
}

// PanicError is returned by Do when the task panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

type outcome[T any] struct {
	val T
	err error
}

// Do runs fn on the pool and waits for its result or for ctx to end.
// When ctx ends first the task still runs to completion if already started;
// its result is discarded.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	done := make(chan outcome[T], 1)

	err := p.Submit(ctx, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: &PanicError{Value: r}}
				panic(r)
			}
		}()
		v, err := fn(ctx)
		done <- outcome[T]{val: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
