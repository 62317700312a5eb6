package services

import (
	"context"
	"log"
	"sync"
)

// Task is a unit of deferred work executed after the triggering request has
// already been acknowledged. Failures are terminal for the attempt: logged,
// never retried, never fed back into reconciliation.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type TaskRunner interface {
	Enqueue(t Task) bool
}

// BackgroundTaskRunner is a bounded channel + worker pool. Enqueue never blocks the
// caller's acknowledgment path: a full queue drops the task with a log line.
type BackgroundTaskRunner struct {
	mu      sync.Mutex
	queue   chan Task
	stopped bool
	workers int
	wg      sync.WaitGroup
}

func NewTaskRunner(queueSize, workers int) *BackgroundTaskRunner {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &BackgroundTaskRunner{
		queue:   make(chan Task, queueSize),
		workers: workers,
	}
}

func (r *BackgroundTaskRunner) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

func (r *BackgroundTaskRunner) Enqueue(t Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		log.Printf("task %s rejected: runner stopped", t.Name)
		return false
	}

	select {
	case r.queue <- t:
		return true
	default:
		log.Printf("task %s dropped: queue full", t.Name)
		return false
	}
}

// Stop drains queued tasks until ctx expires; anything still in flight after
// that is abandoned.
func (r *BackgroundTaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Println("task runner shutdown timed out, abandoning in-flight tasks")
		return ctx.Err()
	}
}

func (r *BackgroundTaskRunner) worker() {
	defer r.wg.Done()
	for t := range r.queue {
		r.runOne(t)
	}
}

func (r *BackgroundTaskRunner) runOne(t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("task %s panicked: %v", t.Name, rec)
		}
	}()

	if err := t.Run(context.Background()); err != nil {
		log.Printf("task %s failed: %v", t.Name, err)
	}
}
