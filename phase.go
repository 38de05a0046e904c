package corethread

// Scheduler is the capacity-lending contract with a cooperating task
// scheduler. The consumer calls RemoveWorker when it begins doing
// dedicated work and AddWorker whenever it becomes idle (about to wait)
// or is shutting down, so idle dispatch time is not wasted on a reserved
// core. The taskpool subpackage provides an implementation.
type Scheduler interface {
	// AddWorker releases one unit of worker capacity back to the pool.
	AddWorker()

	// RemoveWorker reserves one unit of worker capacity from the pool.
	RemoveWorker()
}

// nopScheduler is used when no scheduler is configured.
type nopScheduler struct{}

func (nopScheduler) AddWorker()    {}
func (nopScheduler) RemoveWorker() {}

// loopPhase is the consumer loop's explicit state. Capacity donation is
// a function of the phase rather than flags scattered across the wait
// loop.
type loopPhase uint8

const (
	// phaseDraining: the consumer is playing back a batch and holds a
	// reserved worker slot.
	phaseDraining loopPhase = iota

	// phaseIdleReserved: the queue was empty but the consumer has
	// reclaimed its slot and is about to re-check the predicate.
	phaseIdleReserved

	// phaseIdleDonated: the consumer is waiting on the ready condition
	// with its slot donated to the scheduler.
	phaseIdleDonated

	// phaseShutdown: the consumer has observed the shutdown flag with an
	// empty queue and has returned its slot for good.
	phaseShutdown
)

// String returns the phase name for log attributes.
func (p loopPhase) String() string {
	switch p {
	case phaseDraining:
		return "draining"
	case phaseIdleReserved:
		return "idle-reserved"
	case phaseIdleDonated:
		return "idle-donated"
	case phaseShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// donates reports whether the consumer's worker slot belongs to the
// scheduler in this phase.
func (p loopPhase) donates() bool {
	return p == phaseIdleDonated || p == phaseShutdown
}

// capacityLender couples consumer loop phase transitions to the
// scheduler's capacity accounting. Entering a donating phase releases the
// consumer's slot; entering a reserving phase reclaims it. The transition
// function is independent of the blocking primitive driving it, so it is
// testable against a fake scheduler.
//
// A new lender starts donated: until the consumer reserves its slot the
// thread still counts as pool capacity.
type capacityLender struct {
	sched Scheduler
	phase loopPhase
	// donated tracks the actual slot state so repeated transitions into
	// the same kind of phase do not double-count.
	donated bool
}

func newCapacityLender(sched Scheduler) *capacityLender {
	if sched == nil {
		sched = nopScheduler{}
	}
	return &capacityLender{
		sched:   sched,
		phase:   phaseIdleDonated,
		donated: true,
	}
}

// enter transitions the lender to the given phase, donating or
// reclaiming the worker slot as the phase requires.
func (l *capacityLender) enter(p loopPhase) {
	l.phase = p
	if want := p.donates(); want != l.donated {
		if want {
			l.sched.AddWorker()
		} else {
			l.sched.RemoveWorker()
		}
		l.donated = want
	}
}
