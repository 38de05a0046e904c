package corethread

import "sync"

// completionSet tracks notify ids that have finished but whose blocked
// waiter has not yet observed them.
//
// It is guarded by its own mutex, kept separate from the submission lock
// so that a producer blocked on completion neither holds nor needs the
// lock guarding new submissions.
type completionSet struct {
	mu   sync.Mutex
	cond *sync.Cond
	done map[NotifyID]struct{}
}

func newCompletionSet() *completionSet {
	s := &completionSet{
		done: make(map[NotifyID]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// add records a completed id and wakes all blocked waiters. The wake is a
// broadcast: multiple distinct waiters may be blocked simultaneously and
// each re-checks whether its own id is present.
func (s *completionSet) add(id NotifyID) {
	s.mu.Lock()
	s.done[id] = struct{}{}
	s.mu.Unlock()

	s.cond.Broadcast()
}

// wait blocks until id appears in the set, then consumes it. The
// predicate is re-checked in a loop to account for spurious and
// broadcast wakes.
func (s *completionSet) wait(id NotifyID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if _, ok := s.done[id]; ok {
			delete(s.done, id)
			return
		}
		s.cond.Wait()
	}
}
