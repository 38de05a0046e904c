// Package corethread provides a thread-affine command dispatch engine for
// GPU work in the GoGPU ecosystem.
//
// # Overview
//
// GPU device state is not safe for concurrent use: a device context must be
// created, used, and destroyed on a single thread. corethread solves the
// resulting systems problem: many producer goroutines (game logic, resource
// loading, UI) need to issue commands that must execute, in submission order,
// on one dedicated consumer goroutine pinned to an OS thread.
//
// # Quick Start
//
//	import "github.com/gogpu/corethread"
//
//	// Start the core thread
//	ct, err := corethread.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ct.Stop()
//
//	// Fire-and-forget from any goroutine
//	ct.Submit(func() { uploadTexture() }, false)
//
//	// Block until a command has executed on the core thread
//	ct.Submit(func() { createSwapchain() }, true)
//
// # Accessors
//
// Taking the shared lock for every command does not scale. Each producer
// goroutine can instead obtain an Accessor, batch several commands locally,
// and cross into the shared dispatch path once:
//
//	a := ct.Accessor()
//	a.Queue(func() { bindPipeline() })
//	a.Queue(func() { draw() })
//	a.Submit(true) // one locked merge, then wait for the whole batch
//
// # Frame Arenas
//
// Two linear memory arenas are swapped once per frame via AdvanceFrame.
// Commands queued this frame may still be read by the consumer after the
// producer has moved on to the next frame's data; double buffering keeps
// the in-flight arena untouched. Allocations are epoch-tagged so access
// after a swap is caught instead of silently corrupting memory.
//
// # Capacity Lending
//
// A dedicated consumer goroutine would otherwise reserve a core even while
// idle. When its queue is empty the consumer donates its reservation back
// to a cooperating task scheduler (see the Scheduler interface and the
// taskpool subpackage) and reclaims it before resuming work.
//
// # Thread Affinity
//
// Operations restricted to the core thread, and operations that must not
// run on it, are checked against the consumer's recorded identity. A
// violation is a programmer error and surfaces deterministically as an
// error wrapping ErrInternal.
//
// # Single-Threaded Mode
//
// WithSingleThreaded configures a dispatcher with no consumer goroutine:
// commands execute synchronously on the caller and blocking degenerates to
// a no-op. The public contract is unchanged.
package corethread

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
