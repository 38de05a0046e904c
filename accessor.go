package corethread

import "sync"

// nopLocker replaces the mutex in single-producer accessors; the queue is
// touched only by its owning goroutine.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Accessor is a per-producer batching handle over a private command
// queue. A producer queues several commands locally, without touching the
// shared lock, and crosses into the shared dispatch path once per Submit.
//
// Accessors obtained through [CoreThread.Accessor] are single-producer:
// only the goroutine that requested one may use it. The accessor from
// [CoreThread.SyncedAccessor] is lock-protected and usable from any
// goroutine.
type Accessor struct {
	ct    *CoreThread
	mu    sync.Locker
	queue *CommandQueue
}

func newAccessor(ct *CoreThread, mu sync.Locker) *Accessor {
	return &Accessor{
		ct:    ct,
		mu:    mu,
		queue: NewCommandQueue(),
	}
}

// Queue batches a command locally. Nil commands are ignored.
func (a *Accessor) Queue(fn Command) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.queue.Queue(fn, InvalidNotifyID)
	a.mu.Unlock()
}

// QueueReturn batches a result-producing command locally and returns its
// handle. Returns nil for a nil command.
func (a *Accessor) QueueReturn(fn ReturnCommand) *AsyncOp {
	if fn == nil {
		return nil
	}
	a.mu.Lock()
	op := a.queue.QueueReturn(fn, InvalidNotifyID)
	a.mu.Unlock()
	return op
}

// Pending returns the number of locally batched commands.
func (a *Accessor) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queue.Len()
}

// Submit merges the local batch into the dispatcher's shared queue in one
// locked operation. With block set, Submit waits until every command in
// the batch has completed. An empty batch is a no-op.
//
// If the dispatcher is shutting down the batch is not enqueued and the
// local queue keeps its contents; Submit returns ErrShuttingDown.
func (a *Accessor) Submit(block bool) error {
	a.mu.Lock()
	batch := a.queue.Flush()
	a.mu.Unlock()

	if err := a.ct.submitBatch(batch, block); err != nil {
		// Restore so a retry or inspection still sees the commands.
		a.mu.Lock()
		a.queue.append(batch)
		a.mu.Unlock()
		return err
	}
	return nil
}

// Accessor returns the calling goroutine's accessor, creating and
// registering it on first use. Accessors are looked up in an explicit
// registry keyed by goroutine identity, owned by the dispatcher, and
// enumerated by SubmitAll.
func (ct *CoreThread) Accessor() *Accessor {
	gid := goroutineID()

	ct.accessorMu.Lock()
	defer ct.accessorMu.Unlock()

	if a, ok := ct.accessors[gid]; ok {
		return a
	}
	a := newAccessor(ct, nopLocker{})
	ct.accessors[gid] = a
	return a
}

// SyncedAccessor returns the shared, lock-protected accessor. It exists
// for code paths that cannot cache a per-goroutine accessor.
func (ct *CoreThread) SyncedAccessor() *Accessor {
	return ct.synced
}

// SubmitAll flushes every registered accessor and the synced accessor
// into the shared queue, e.g. an end-of-frame "submit everything".
//
// SubmitAll is a frame-boundary operation: the caller guarantees that no
// producer is concurrently batching into its accessor, the same contract
// that governs AdvanceFrame. The first error is returned after all
// accessors have been attempted.
func (ct *CoreThread) SubmitAll(block bool) error {
	ct.accessorMu.Lock()
	list := make([]*Accessor, 0, len(ct.accessors))
	for _, a := range ct.accessors {
		list = append(list, a)
	}
	ct.accessorMu.Unlock()

	var firstErr error
	for _, a := range list {
		if err := a.Submit(block); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := ct.synced.Submit(block); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
