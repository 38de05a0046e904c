package corethread

import (
	"errors"
	"fmt"
)

// Package errors for corethread.
//
// Thread-affinity violations and missing threading support are both
// precondition faults surfaced through the single abstract ErrInternal
// kind; callers can match the specific condition or the kind with
// errors.Is.
var (
	// ErrInternal is the abstract fault kind for programmer errors
	// detected at a call site. All affinity and configuration faults
	// wrap ErrInternal.
	ErrInternal = errors.New("corethread: internal error")

	// ErrNotCoreThread is returned when an operation restricted to the
	// core thread is called from another goroutine.
	ErrNotCoreThread = fmt.Errorf("%w: operation is restricted to the core thread", ErrInternal)

	// ErrCoreThread is returned when an operation that must not run on
	// the core thread is called from it.
	ErrCoreThread = fmt.Errorf("%w: operation cannot run on the core thread", ErrInternal)

	// ErrNoThreadSupport is returned by New when the configured thread
	// pool cannot start the consumer thread.
	ErrNoThreadSupport = fmt.Errorf("%w: threading support unavailable", ErrInternal)

	// ErrShuttingDown is returned for submissions after shutdown was
	// requested. The enqueue faults before any state changes; nothing
	// is partially queued.
	ErrShuttingDown = errors.New("corethread: dispatcher is shutting down")

	// ErrNilCommand is returned when a nil callback is submitted.
	ErrNilCommand = errors.New("corethread: nil command")
)
