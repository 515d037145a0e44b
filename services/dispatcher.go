package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of best-effort background work.
type Task func(ctx context.Context) error

// TaskRunner accepts background work without blocking the caller.
type TaskRunner interface {
	Submit(name string, task Task) bool
}

type job struct {
	name string
	task Task
}

// Dispatcher runs side effects (broadcasts, emails, events, metrics) on a
// fixed pool of workers fed by a bounded queue. When the queue is full new
// work is dropped and logged; the request path never waits.
type Dispatcher struct {
	tasks   chan job
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(workers, queueSize int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		tasks:   make(chan job, queueSize),
		timeout: timeout,
		logger:  logger,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues task. It returns false when the queue is full or closed.
func (d *Dispatcher) Submit(name string, task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping task", zap.String("task", name))
		return false
	}
	select {
	case d.tasks <- job{name: name, task: task}:
		return true
	default:
		d.logger.Warn("dispatcher queue full, dropping task", zap.String("task", name))
		return false
	}
}

// Close stops accepting work and waits for queued tasks to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.tasks {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("background task panicked", zap.String("task", j.name), zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := j.task(ctx); err != nil {
		d.logger.Warn("background task failed", zap.String("task", j.name), zap.Error(err))
	}
}
