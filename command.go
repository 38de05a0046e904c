package corethread

import "sync/atomic"

// Command is a zero-argument callback executed on the core thread.
//
// Commands are stored by value inside a CommandQueue until played back and
// are invoked exactly once. A command must not panic: command-body faults
// are a caller bug, not a dispatcher responsibility.
type Command func()

// ReturnCommand is a callback that produces a result through an AsyncOp.
// The body must call [AsyncOp.Complete] before returning; playback logs a
// warning and completes the operation with a nil value if it does not.
type ReturnCommand func(op *AsyncOp)

// NotifyID identifies a command whose completion a producer wants to
// block on. IDs are allocated by the dispatcher, monotonically increasing
// for its lifetime, and never shared by two pending blocking commands.
type NotifyID uint64

// InvalidNotifyID is the sentinel for "no completion notification
// requested".
const InvalidNotifyID = NotifyID(^uint64(0))

// IsValid returns true if the id requests a completion notification.
func (id NotifyID) IsValid() bool {
	return id != InvalidNotifyID
}

// asyncResult wraps a completed value so that a nil result is still
// distinguishable from "not yet completed".
type asyncResult struct {
	value any
}

// AsyncOp is the one-shot result handle of a queued ReturnCommand.
//
// The handle is populated exactly once, by the command's own body, no
// later than the command's invocation. For a blocking submission the
// result is available when the submit call returns; for fire-and-forget
// submissions use IsCompleted to poll.
//
// AsyncOp is safe for concurrent use: completion is published atomically.
type AsyncOp struct {
	result atomic.Pointer[asyncResult]
}

// Complete publishes the result value. Calling Complete twice is a
// programmer error and panics.
func (op *AsyncOp) Complete(value any) {
	if !op.result.CompareAndSwap(nil, &asyncResult{value: value}) {
		panic("corethread: AsyncOp completed twice")
	}
}

// IsCompleted returns true once the command body has published a result.
func (op *AsyncOp) IsCompleted() bool {
	return op.result.Load() != nil
}

// Value returns the published result. Calling Value before the operation
// has completed is a programmer error and panics; use IsCompleted or a
// blocking submission to establish completion first.
func (op *AsyncOp) Value() any {
	r := op.result.Load()
	if r == nil {
		panic("corethread: AsyncOp value read before completion")
	}
	return r.value
}

// queuedCommand is a command plus its completion bookkeeping, as stored
// inside a CommandQueue. Exactly one of fn and ret is non-nil.
type queuedCommand struct {
	fn     Command
	ret    ReturnCommand
	op     *AsyncOp
	notify NotifyID
}

// invoke runs the command. For return commands the AsyncOp is completed
// with a nil value if the body failed to publish a result.
func (c *queuedCommand) invoke() {
	if c.ret != nil {
		c.ret(c.op)
		if !c.op.IsCompleted() {
			Logger().Warn("corethread: return command finished without completing its AsyncOp")
			c.op.Complete(nil)
		}
		return
	}
	c.fn()
}
