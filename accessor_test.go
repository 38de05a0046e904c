package corethread

import (
	"errors"
	"sync"
	"testing"
)

func TestAccessorBatching(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()

	var order []int
	for i := 0; i < 5; i++ {
		n := i
		a.Queue(func() { order = append(order, n) })
	}

	if got := a.Pending(); got != 5 {
		t.Errorf("Pending() = %d, want 5", got)
	}
	if len(order) != 0 {
		t.Error("commands executed before Submit")
	}

	if err := a.Submit(true); err != nil {
		t.Fatal(err)
	}

	if got := a.Pending(); got != 0 {
		t.Errorf("Pending() after Submit = %d, want 0", got)
	}
	if len(order) != 5 {
		t.Fatalf("executed %d commands, want 5", len(order))
	}
	for i, n := range order {
		if n != i {
			t.Errorf("order[%d] = %d, want %d", i, n, i)
		}
	}
}

func TestAccessorBlockingSubmitCoversWholeBatch(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()

	done := [3]bool{}
	for i := range done {
		i := i
		a.Queue(func() { done[i] = true })
	}

	if err := a.Submit(true); err != nil {
		t.Fatal(err)
	}

	// The blocking submit tracks the batch by its highest notify id, so
	// every command has executed when it returns.
	for i, d := range done {
		if !d {
			t.Errorf("batch command %d had not executed when Submit returned", i)
		}
	}
}

func TestAccessorEmptySubmit(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()
	if err := a.Submit(true); err != nil {
		t.Errorf("empty Submit = %v, want nil", err)
	}
}

func TestAccessorIgnoresNil(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()
	a.Queue(nil)
	if op := a.QueueReturn(nil); op != nil {
		t.Error("QueueReturn(nil) should return nil")
	}
	if got := a.Pending(); got != 0 {
		t.Errorf("Pending() = %d after nil queues, want 0", got)
	}
}

func TestAccessorQueueReturn(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()
	op := a.QueueReturn(func(op *AsyncOp) { op.Complete("batched") })

	if err := a.Submit(true); err != nil {
		t.Fatal(err)
	}

	if !op.IsCompleted() {
		t.Fatal("AsyncOp not completed after blocking batch submit")
	}
	if got := op.Value(); got != "batched" {
		t.Errorf("Value() = %v, want %q", got, "batched")
	}
}

func TestAccessorPerGoroutineIdentity(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	// Same goroutine: same accessor.
	a1 := ct.Accessor()
	a2 := ct.Accessor()
	if a1 != a2 {
		t.Error("Accessor() returned different instances for the same goroutine")
	}

	// Different goroutine: different accessor.
	ch := make(chan *Accessor)
	go func() { ch <- ct.Accessor() }()
	other := <-ch
	if other == a1 {
		t.Error("Accessor() shared an instance across goroutines")
	}
}

func TestSyncedAccessorConcurrentUse(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	sa := ct.SyncedAccessor()
	if sa == nil {
		t.Fatal("SyncedAccessor() returned nil")
	}

	count := 0 // consumer-owned
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sa.Queue(func() { count++ })
			}
		}()
	}
	wg.Wait()

	if err := sa.Submit(true); err != nil {
		t.Fatal(err)
	}

	var total int
	if err := ct.Submit(func() { total = count }, true); err != nil {
		t.Fatal(err)
	}
	if total != 8*50 {
		t.Errorf("executed %d commands, want %d", total, 8*50)
	}
}

func TestSubmitAllFlushesEverything(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	executed := 0 // consumer-owned

	// Register accessors from several goroutines and leave commands
	// batched in each.
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := ct.Accessor()
			a.Queue(func() { executed++ })
			a.Queue(func() { executed++ })
		}()
	}
	wg.Wait()

	ct.SyncedAccessor().Queue(func() { executed++ })

	if err := ct.SubmitAll(true); err != nil {
		t.Fatal(err)
	}

	var total int
	if err := ct.Submit(func() { total = executed }, true); err != nil {
		t.Fatal(err)
	}
	if total != 7 {
		t.Errorf("SubmitAll executed %d commands, want 7", total)
	}
}

func TestAccessorSubmitAfterShutdownKeepsBatch(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}

	a := ct.Accessor()
	a.Queue(func() {})
	a.Queue(func() {})

	ct.Stop()

	if err := a.Submit(false); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("Submit after Stop = %v, want ErrShuttingDown", err)
	}
	// The refused batch stays inspectable; nothing was enqueued.
	if got := a.Pending(); got != 2 {
		t.Errorf("Pending() after refused Submit = %d, want 2", got)
	}
}

func TestAccessorOnConsumerExecutesInline(t *testing.T) {
	ct, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	var ran bool
	if err := ct.Submit(func() {
		a := ct.Accessor()
		a.Queue(func() { ran = true })
		if err := a.Submit(true); err != nil {
			t.Errorf("inline accessor submit failed: %v", err)
		}
	}, true); err != nil {
		t.Fatal(err)
	}

	if !ran {
		t.Error("batch queued on the consumer did not execute inline")
	}
}

func TestAccessorSingleThreaded(t *testing.T) {
	ct, err := New(WithSingleThreaded())
	if err != nil {
		t.Fatal(err)
	}
	defer ct.Stop()

	a := ct.Accessor()
	ran := false
	a.Queue(func() { ran = true })

	if err := a.Submit(false); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("single-threaded accessor submit did not execute synchronously")
	}
}
