package corethread

// Option configures a CoreThread during creation.
// Use functional options to customize dispatcher behavior.
//
// Example:
//
//	// Default multi-threaded dispatch
//	ct, err := corethread.New()
//
//	// Lend idle capacity to a task pool
//	pool := taskpool.New(runtime.GOMAXPROCS(0))
//	ct, err := corethread.New(corethread.WithScheduler(pool))
type Option func(*options)

// options holds optional configuration for CoreThread creation.
type options struct {
	singleThreaded bool
	sched          Scheduler
	pool           ThreadPool
	name           string
	arenaBlockSize int
}

// defaultOptions returns the default dispatcher options.
func defaultOptions() options {
	return options{
		sched:          nopScheduler{},
		pool:           osThreadPool{},
		name:           "core",
		arenaBlockSize: defaultArenaBlockSize,
	}
}

// WithSingleThreaded configures synchronous dispatch: no consumer
// goroutine is spawned, commands execute immediately on the caller, and
// blocking submissions degenerate to no-ops. This changes internal
// behavior but not the public contract.
func WithSingleThreaded() Option {
	return func(o *options) {
		o.singleThreaded = true
	}
}

// WithScheduler sets the task scheduler the consumer lends its idle
// capacity to. Without a scheduler, idle donation is a no-op.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.sched = s
		}
	}
}

// WithThreadPool sets the thread pool used to spawn the consumer thread.
// The default runs the consumer on a goroutine locked to an OS thread.
func WithThreadPool(p ThreadPool) Option {
	return func(o *options) {
		if p != nil {
			o.pool = p
		}
	}
}

// WithName sets the consumer thread name used in log attributes and
// passed to the thread pool. The default is "core".
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithFrameArenaBlockSize sets the block size of the two frame arenas.
// The default is 1 MiB.
func WithFrameArenaBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.arenaBlockSize = n
		}
	}
}
