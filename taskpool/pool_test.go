package taskpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it returns true or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewDefaultCapacity(t *testing.T) {
	p := New(0)
	defer p.Close()

	want := runtime.GOMAXPROCS(0)
	if got := p.Capacity(); got != want {
		t.Errorf("Capacity() = %d, want %d", got, want)
	}
	if got := p.Workers(); got != want {
		t.Errorf("Workers() = %d, want %d", got, want)
	}
}

func TestSubmitExecutes(t *testing.T) {
	p := New(2)
	defer p.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()

	if got := count.Load(); got != 100 {
		t.Errorf("executed %d tasks, want 100", got)
	}
}

func TestSubmitNilIgnored(t *testing.T) {
	p := New(1)
	defer p.Close()

	p.Submit(nil)

	if got := p.QueuedWork(); got != 0 {
		t.Errorf("QueuedWork() = %d after nil submit, want 0", got)
	}
}

func TestRemoveWorkerShrinks(t *testing.T) {
	p := New(2)
	defer p.Close()

	p.RemoveWorker()

	if got := p.Capacity(); got != 1 {
		t.Errorf("Capacity() = %d, want 1", got)
	}
	waitFor(t, "worker to exit", func() bool { return p.Workers() == 1 })
}

func TestAddWorkerGrows(t *testing.T) {
	p := New(1)
	defer p.Close()

	p.AddWorker()

	if got := p.Capacity(); got != 2 {
		t.Errorf("Capacity() = %d, want 2", got)
	}
	waitFor(t, "worker to spawn", func() bool { return p.Workers() == 2 })
}

func TestLendingCycle(t *testing.T) {
	p := New(2)
	defer p.Close()

	// A core thread reserves a slot for dedicated work, then returns it
	// while idle. Capacity must track the cycle exactly.
	p.RemoveWorker()
	p.AddWorker()
	p.RemoveWorker()
	p.AddWorker()

	if got := p.Capacity(); got != 2 {
		t.Errorf("Capacity() = %d after balanced lending, want 2", got)
	}

	// The pool still executes work afterwards.
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not execute after lending cycle")
	}
}

func TestCloseDrainsQueuedWork(t *testing.T) {
	p := New(1)

	gate := make(chan struct{})
	var count atomic.Int32

	// Park the only worker, then queue more work behind it.
	p.Submit(func() { <-gate })
	for i := 0; i < 5; i++ {
		p.Submit(func() { count.Add(1) })
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gate)
	}()
	p.Close()

	if got := count.Load(); got != 5 {
		t.Errorf("drained %d tasks at Close, want 5", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := New(1)
	p.Close()
	p.Close()

	// Submissions after Close are ignored.
	p.Submit(func() { t.Error("task executed after Close") })
	time.Sleep(10 * time.Millisecond)
}
