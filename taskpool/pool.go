// Package taskpool provides an elastic worker pool that cooperates with
// a corethread dispatcher through capacity lending.
//
// The pool runs background tasks (resource loading, decompression,
// culling) on a target number of workers. A corethread consumer reserves
// one unit of capacity while it does dedicated work and returns it while
// idle, so an idle core thread does not waste a core:
//
//	pool := taskpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	ct, err := corethread.New(corethread.WithScheduler(pool))
package taskpool

import (
	"runtime"
	"sync"

	"github.com/gogpu/corethread"
)

// Pool is an elastic pool of worker goroutines with a central FIFO task
// queue. Unlike a fixed pool, its capacity moves: AddWorker and
// RemoveWorker adjust the target worker count at runtime, which is how a
// corethread consumer lends its reservation while idle.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	// tasks is the pending work, executed in submission order.
	tasks []func()

	// capacity is the target number of live workers.
	capacity int

	// workers is the current number of live workers. A worker exits when
	// it notices workers > capacity.
	workers int

	closed bool
	wg     sync.WaitGroup
}

// New creates a pool with the given target capacity and starts its
// workers. If capacity is 0 or negative, GOMAXPROCS is used.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = runtime.GOMAXPROCS(0)
	}

	p := &Pool{capacity: capacity}
	p.cond = sync.NewCond(&p.mu)

	p.mu.Lock()
	for p.workers < p.capacity {
		p.spawnLocked()
	}
	p.mu.Unlock()

	return p
}

// spawnLocked starts one worker. Caller holds p.mu.
func (p *Pool) spawnLocked() {
	p.workers++
	p.wg.Add(1)
	go p.worker()
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker() {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		switch {
		case !p.closed && p.workers > p.capacity:
			// Capacity was reserved elsewhere; shed this worker even if
			// work is queued. The remaining workers keep the queue.
			p.workers--
			p.mu.Unlock()
			return

		case len(p.tasks) > 0:
			task := p.tasks[0]
			p.tasks = p.tasks[1:]
			p.mu.Unlock()
			task()
			p.mu.Lock()

		case p.closed:
			p.workers--
			p.mu.Unlock()
			return

		default:
			p.cond.Wait()
		}
	}
}

// Submit queues a task for execution. Nil tasks and submissions after
// Close are ignored.
func (p *Pool) Submit(task func()) {
	if task == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()

	p.cond.Signal()
}

// AddWorker returns one unit of worker capacity to the pool, spawning a
// worker if needed. Implements corethread.Scheduler.
func (p *Pool) AddWorker() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.capacity++
	if p.workers < p.capacity {
		p.spawnLocked()
	}
	p.mu.Unlock()
}

// RemoveWorker reserves one unit of worker capacity. An idle worker exits
// when it notices; a busy worker finishes its current task first.
// Implements corethread.Scheduler.
func (p *Pool) RemoveWorker() {
	p.mu.Lock()
	p.capacity--
	p.mu.Unlock()

	p.cond.Broadcast()
}

// Capacity returns the target worker count.
func (p *Pool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

// Workers returns the current live worker count.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// QueuedWork returns the number of pending tasks.
func (p *Pool) QueuedWork() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// Close stops accepting work, lets queued tasks finish, and waits for
// all workers to exit. Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}

// Interface guard: Pool lends capacity to a corethread dispatcher.
var _ corethread.Scheduler = (*Pool)(nil)
