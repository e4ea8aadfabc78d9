// Package task provides a small worker pool with composable task handles.
//
// The streaming scheduler runs on a single goroutine and never blocks on
// in-flight work; it polls IsReady once per frame. Workers execute pure
// computation, so there is no cancellation: a spawned task always runs to
// completion.
package task

import (
	"runtime"
	"sync"
)

// Task is a handle to work that completes exactly once.
type Task struct {
	done chan struct{}
	once sync.Once
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) complete() {
	t.once.Do(func() { close(t.done) })
}

// IsReady reports completion without blocking.
func (t *Task) IsReady() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Join blocks until the task completes. Worker goroutines may Join on
// predecessor tasks; the scheduler thread must only poll IsReady.
func (t *Task) Join() {
	<-t.done
}

// Completed returns an already-finished task, useful as a neutral dependency.
func Completed() *Task {
	t := newTask()
	t.complete()
	return t
}

// Combine returns a task that completes when every dep has completed.
func Combine(deps ...*Task) *Task {
	if len(deps) == 1 {
		return deps[0]
	}
	t := newTask()
	go func() {
		for _, d := range deps {
			d.Join()
		}
		t.complete()
	}()
	return t
}

// Pool runs spawned functions on a fixed set of worker goroutines.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	// pending counts SpawnAfter waiters that have not submitted their job
	// yet. Close must not close jobs while any remain, or a waiter whose
	// dependency drains during shutdown would send on a closed channel.
	pending sync.WaitGroup
}

// NewPool creates a pool with the given worker count; 0 means NumCPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		jobs: make(chan func(), 1024),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.jobs {
		fn()
	}
}

// Close stops accepting work and waits for in-flight tasks to finish.
// Queued jobs still run; dependency waiters submit theirs before the queue
// closes. No Spawn or SpawnAfter may be issued after Close.
func (p *Pool) Close() {
	p.pending.Wait()
	close(p.jobs)
	p.wg.Wait()
}

// Spawn schedules fn on the pool and returns its handle.
func (p *Pool) Spawn(fn func()) *Task {
	t := newTask()
	p.jobs <- func() {
		fn()
		t.complete()
	}
	return t
}

// SpawnAfter schedules fn once all deps have completed. The wait happens on
// a transient goroutine, not a pool worker, so dependency chains cannot
// starve the pool.
func (p *Pool) SpawnAfter(fn func(), deps ...*Task) *Task {
	t := newTask()
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		for _, d := range deps {
			d.Join()
		}
		p.jobs <- func() {
			fn()
			t.complete()
		}
	}()
	return t
}
