package corethread

import (
	"runtime"
	"strconv"
	"strings"
)

// goroutineID returns a unique identifier for the current goroutine,
// extracted from the runtime stack trace header ("goroutine <id> [").
// Go deliberately hides goroutine identity; parsing the header is the
// portable way to obtain one, and the cost is only paid on the accessor
// lookup and guard paths, never per command.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	idStr := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if idx := strings.Index(idStr, " "); idx > 0 {
		idStr = idStr[:idx]
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// OnCoreThread reports whether the calling goroutine is the consumer.
func (ct *CoreThread) OnCoreThread() bool {
	if ct.singleThreaded {
		return true
	}
	return goroutineID() == ct.coreID.Load()
}

// EnsureCoreThread returns ErrNotCoreThread if the calling goroutine is
// not the consumer. Use it to guard operations touching state owned by
// the core thread. In single-threaded mode the guard is a no-op.
func (ct *CoreThread) EnsureCoreThread() error {
	if !ct.OnCoreThread() {
		return ErrNotCoreThread
	}
	return nil
}

// EnsureNotCoreThread returns ErrCoreThread if the calling goroutine is
// the consumer. Use it to guard operations that would deadlock or stall
// the core thread. In single-threaded mode the guard is a no-op.
func (ct *CoreThread) EnsureNotCoreThread() error {
	if ct.singleThreaded {
		return nil
	}
	if goroutineID() == ct.coreID.Load() {
		return ErrCoreThread
	}
	return nil
}
