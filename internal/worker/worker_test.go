package worker

import (
	"testing"
	"time"
)

func TestWorkerRunsTasksAndDrainsSyncFIFO(t *testing.T) {
	w := New(8)
	defer w.Close()

	var order []int
	var mu countingMutex
	for i := 0; i < 5; i++ {
		i := i
		if !w.Add(funcTask{
			inThread: func() {},
			sync: func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			},
		}) {
			t.Fatalf("Add rejected task %d", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(order) < 5 && time.Now().Before(deadline) {
		w.DrainSync()
		time.Sleep(5 * time.Millisecond)
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 synced tasks, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("sync order not FIFO: %v", order)
		}
	}
}

func TestAddRejectsWhenQueueFull(t *testing.T) {
	w := New(1)
	defer w.Close()
	// Fill the channel buffer without letting the worker drain it by
	// submitting a task that blocks until we say so.
	block := make(chan struct{})
	started := make(chan struct{})
	w.Add(funcTask{inThread: func() {
		close(started)
		<-block
	}, sync: func() {}})
	<-started
	// Worker is now busy InThread; the channel buffer (size 1) is free,
	// so one more Add should succeed and a second should be rejected.
	if !w.Add(funcTask{inThread: func() {}, sync: func() {}}) {
		t.Fatalf("expected first buffered Add to succeed")
	}
	if w.Add(funcTask{inThread: func() {}, sync: func() {}}) {
		t.Fatalf("expected Add to reject once queue is full")
	}
	close(block)
}

func TestPanicInThreadIsRecoveredAndCounted(t *testing.T) {
	w := New(4)
	defer w.Close()

	synced := make(chan struct{}, 1)
	w.Add(funcTask{inThread: func() { panic("boom") }, sync: func() {}})
	w.Add(funcTask{inThread: func() {}, sync: func() { synced <- struct{}{} }})

	deadline := time.Now().Add(2 * time.Second)
	for {
		w.DrainSync()
		select {
		case <-synced:
			if w.DroppedTasks() != 1 {
				t.Fatalf("expected exactly 1 dropped task, got %d", w.DroppedTasks())
			}
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("second task never synced after the first panicked")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPanicInSyncIsRecoveredAndCounted(t *testing.T) {
	w := New(4)
	defer w.Close()

	w.Add(funcTask{inThread: func() {}, sync: func() { panic("boom") }})

	deadline := time.Now().Add(2 * time.Second)
	for w.DroppedTasks() == 0 && time.Now().Before(deadline) {
		w.DrainSync()
		time.Sleep(5 * time.Millisecond)
	}
	if w.DroppedTasks() != 1 {
		t.Fatalf("expected exactly 1 dropped task, got %d", w.DroppedTasks())
	}
}

type funcTask struct {
	inThread func()
	sync     func()
}

func (f funcTask) InThread() { f.inThread() }
func (f funcTask) Sync()     { f.sync() }

type countingMutex struct{ ch chan struct{} }

func (m *countingMutex) Lock() {
	if m.ch == nil {
		m.ch = make(chan struct{}, 1)
	}
	m.ch <- struct{}{}
}

func (m *countingMutex) Unlock() { <-m.ch }
