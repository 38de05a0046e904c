package corethread

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// ThreadPool is the collaborator used to spawn the consumer thread. It is
// called once at construction; teardown happens through Stop, not through
// the pool.
type ThreadPool interface {
	// Run starts fn on a new thread identified by name.
	Run(name string, fn func()) error
}

// osThreadPool runs the consumer on a plain goroutine. The consumer loop
// locks itself to an OS thread, which is what GPU device contexts need.
type osThreadPool struct{}

func (osThreadPool) Run(name string, fn func()) error {
	go fn()
	return nil
}

// State describes the dispatcher lifecycle.
type State uint8

const (
	// StateRunning accepts and executes commands.
	StateRunning State = iota

	// StateShuttingDown refuses new commands while the consumer drains
	// the remaining queue.
	StateShuttingDown

	// StateStopped is terminal: the consumer has exited.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CoreThread is the command dispatcher: it owns the shared command queue,
// the completion registry, the frame arenas, and the consumer thread
// lifecycle, bridging producer goroutines to the single consumer that
// owns non-thread-safe device state.
//
// CoreThread is safe for concurrent use by any number of producers.
type CoreThread struct {
	name           string
	singleThreaded bool
	sched          Scheduler

	// queueMu guards the shared queue, the shutdown flag, the lifecycle
	// state, and notify id allocation. It is never held while commands
	// execute.
	queueMu    sync.Mutex
	ready      *sync.Cond // queue non-empty or shutdown requested
	queue      *CommandQueue
	shutdown   bool
	state      State
	nextNotify NotifyID

	// completed has its own lock; see completionSet.
	completed *completionSet

	// coreID is the consumer's goroutine identity, recorded when the
	// consumer starts.
	coreID atomic.Int64

	started chan struct{}
	done    chan struct{}

	accessorMu sync.Mutex
	accessors  map[int64]*Accessor
	synced     *Accessor

	frames      [2]*FrameAlloc
	activeFrame atomic.Uint32
}

// New creates a dispatcher and spawns its consumer thread. The call
// returns once the consumer has recorded its identity and entered its
// loop, or with an error wrapping ErrNoThreadSupport if the configured
// thread pool cannot start it.
//
// With WithSingleThreaded no consumer is spawned and the caller plays
// both roles.
func New(opts ...Option) (*CoreThread, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ct := &CoreThread{
		name:           o.name,
		singleThreaded: o.singleThreaded,
		sched:          o.sched,
		queue:          NewCommandQueue(),
		completed:      newCompletionSet(),
		accessors:      make(map[int64]*Accessor),
		frames: [2]*FrameAlloc{
			newFrameAlloc(o.arenaBlockSize),
			newFrameAlloc(o.arenaBlockSize),
		},
	}
	ct.ready = sync.NewCond(&ct.queueMu)
	ct.synced = newAccessor(ct, &sync.Mutex{})

	if ct.singleThreaded {
		ct.coreID.Store(goroutineID())
		return ct, nil
	}

	ct.started = make(chan struct{})
	ct.done = make(chan struct{})

	if err := o.pool.Run(o.name, ct.run); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoThreadSupport, err)
	}
	<-ct.started

	return ct, nil
}

// run is the consumer loop. It owns the OS thread for the dispatcher's
// lifetime and is the only goroutine that executes queued commands.
func (ct *CoreThread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ct.coreID.Store(goroutineID())
	close(ct.started)

	log := Logger().With(slog.String("thread", ct.name))
	log.Info("corethread: consumer started")

	lender := newCapacityLender(ct.sched)
	lender.enter(phaseDraining)

	for {
		var batch []queuedCommand

		ct.queueMu.Lock()
		for ct.queue.Empty() {
			if ct.shutdown {
				// Final check happens under the lock with an empty
				// queue, and Submit refuses once the flag is set, so
				// nothing can be enqueued past this point.
				ct.state = StateStopped
				ct.queueMu.Unlock()

				lender.enter(phaseShutdown)
				log.Info("corethread: consumer stopped")
				close(ct.done)
				return
			}

			lender.enter(phaseIdleDonated)
			ct.ready.Wait()
			lender.enter(phaseIdleReserved)
		}
		batch = ct.queue.Flush()
		ct.queueMu.Unlock()

		lender.enter(phaseDraining)
		log.Debug("corethread: playing back batch", slog.Int("commands", len(batch)))
		Playback(batch, ct.completed.add)
	}
}

// allocNotifyLocked hands out the next notify id. Caller holds queueMu.
func (ct *CoreThread) allocNotifyLocked() NotifyID {
	id := ct.nextNotify
	ct.nextNotify++
	return id
}

// Submit queues a command for execution on the core thread.
//
// Called from the core thread itself, the command executes synchronously
// and returns immediately; no queueing, no deadlock risk. Otherwise the
// command is enqueued and the consumer woken. With block set, Submit does
// not return until the consumer has invoked this exact command once.
//
// Either the command is successfully enqueued and guaranteed eventual
// execution, or Submit faults before any state changes.
func (ct *CoreThread) Submit(fn Command, block bool) error {
	if fn == nil {
		return ErrNilCommand
	}
	if ct.singleThreaded {
		return ct.runInline(func() { fn() })
	}
	if ct.OnCoreThread() {
		fn()
		return nil
	}

	ct.queueMu.Lock()
	if ct.shutdown {
		ct.queueMu.Unlock()
		return ErrShuttingDown
	}
	id := InvalidNotifyID
	if block {
		id = ct.allocNotifyLocked()
	}
	ct.queue.Queue(fn, id)
	ct.queueMu.Unlock()

	ct.ready.Broadcast()

	if block {
		ct.completed.wait(id)
	}
	return nil
}

// SubmitReturn queues a result-producing command and returns its handle.
// With block set, the result is available when SubmitReturn returns; the
// same reentrancy and failure rules as Submit apply.
func (ct *CoreThread) SubmitReturn(fn ReturnCommand, block bool) (*AsyncOp, error) {
	if fn == nil {
		return nil, ErrNilCommand
	}
	if ct.singleThreaded {
		op := &AsyncOp{}
		if err := ct.runInline(func() { invokeReturn(fn, op) }); err != nil {
			return nil, err
		}
		return op, nil
	}
	if ct.OnCoreThread() {
		op := &AsyncOp{}
		invokeReturn(fn, op)
		return op, nil
	}

	ct.queueMu.Lock()
	if ct.shutdown {
		ct.queueMu.Unlock()
		return nil, ErrShuttingDown
	}
	id := InvalidNotifyID
	if block {
		id = ct.allocNotifyLocked()
	}
	op := ct.queue.QueueReturn(fn, id)
	ct.queueMu.Unlock()

	ct.ready.Broadcast()

	if block {
		ct.completed.wait(id)
	}
	return op, nil
}

// invokeReturn runs a return command inline with the same
// missing-completion handling as queued playback.
func invokeReturn(fn ReturnCommand, op *AsyncOp) {
	c := queuedCommand{ret: fn, op: op, notify: InvalidNotifyID}
	c.invoke()
}

// runInline executes a command synchronously in single-threaded mode,
// honoring the lifecycle state.
func (ct *CoreThread) runInline(fn func()) error {
	ct.queueMu.Lock()
	stopped := ct.state != StateRunning
	ct.queueMu.Unlock()
	if stopped {
		return ErrShuttingDown
	}
	fn()
	return nil
}

// submitBatch merges an accessor's flushed batch into the shared queue in
// one locked operation. With block set, the batch is tracked by the
// highest notify id, which is attached to its last command; accessor
// queues never assign ids themselves.
func (ct *CoreThread) submitBatch(batch []queuedCommand, block bool) error {
	if len(batch) == 0 {
		return nil
	}
	if ct.singleThreaded {
		return ct.runInline(func() { Playback(batch, nil) })
	}
	if ct.OnCoreThread() {
		Playback(batch, nil)
		return nil
	}

	ct.queueMu.Lock()
	if ct.shutdown {
		ct.queueMu.Unlock()
		return ErrShuttingDown
	}
	id := InvalidNotifyID
	if block {
		id = ct.allocNotifyLocked()
		batch[len(batch)-1].notify = id
	}
	ct.queue.append(batch)
	ct.queueMu.Unlock()

	ct.ready.Broadcast()

	if block {
		ct.completed.wait(id)
	}
	return nil
}

// RequestShutdown sets the shutdown flag and wakes the consumer. The
// consumer observes the flag only once its queue is empty, so everything
// enqueued before the flag was set still executes. Subsequent submissions
// fault with ErrShuttingDown. RequestShutdown is idempotent and does not
// wait; use Stop to also join the consumer.
func (ct *CoreThread) RequestShutdown() {
	ct.queueMu.Lock()
	if ct.state == StateRunning {
		ct.state = StateShuttingDown
		ct.shutdown = true
		if ct.singleThreaded {
			ct.state = StateStopped
		}
	}
	ct.queueMu.Unlock()

	ct.ready.Broadcast()
}

// Stop requests shutdown and waits until the consumer has drained the
// remaining queue and exited. Safe to call multiple times.
func (ct *CoreThread) Stop() {
	ct.RequestShutdown()
	if !ct.singleThreaded {
		<-ct.done
	}
}

// State returns the current lifecycle state.
func (ct *CoreThread) State() State {
	ct.queueMu.Lock()
	defer ct.queueMu.Unlock()
	return ct.state
}

// Name returns the consumer thread name.
func (ct *CoreThread) Name() string {
	return ct.name
}

// AdvanceFrame flips the active frame arena and clears the newly active
// one, which has been inactive for a full frame. The caller guarantees
// that no command still referencing the previously active arena is
// outstanding past this call; AdvanceFrame is a frame-boundary operation
// driven by a single thread.
func (ct *CoreThread) AdvanceFrame() {
	next := 1 - ct.activeFrame.Load()
	ct.frames[next].Clear()
	ct.activeFrame.Store(next)
}

// FrameAlloc returns the active frame arena.
func (ct *CoreThread) FrameAlloc() *FrameAlloc {
	return ct.frames[ct.activeFrame.Load()]
}
