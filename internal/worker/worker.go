// Package worker implements the FarMap pipeline's single background
// worker: one goroutine draining a bounded "in" queue of tasks, handing
// finished tasks to a "sync" queue the main thread drains once per frame.
// This generalizes the teacher's channel-based worker pool
// (internal/meshing.WorkerPool) down to exactly one worker, per the single
// background thread the original client used for far-map work.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// popTimeout bounds how long the worker blocks waiting for new work before
// checking for shutdown again.
const popTimeout = 250 * time.Millisecond

// Task is one unit of background work: InThread runs off the main thread
// (no GPU or scene-graph access), Sync runs on the main thread afterward to
// apply results. A task is used exactly once.
type Task interface {
	InThread()
	Sync()
}

// Worker runs exactly one background goroutine. Callers add tasks with
// Add (non-blocking, bounded); finished tasks accumulate on an internal
// sync queue drained once per frame with DrainSync.
type Worker struct {
	in       chan Task
	inLength atomic.Int32
	maxInLen int32

	syncMu   sync.Mutex
	syncList []Task

	droppedTasks atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// New starts the worker goroutine. maxInLen bounds QueueLength() (the
// Fetch advisor uses it to decide when to stop submitting new work).
func New(maxInLen int32) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		in:       make(chan Task, maxInLen),
		maxInLen: maxInLen,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// QueueLength reports the current size of the in queue.
func (w *Worker) QueueLength() int32 { return w.inLength.Load() }

// MaxQueueLength reports the configured bound.
func (w *Worker) MaxQueueLength() int32 { return w.maxInLen }

// Add enqueues a task for the worker, returning false without blocking if
// the in queue is at capacity.
func (w *Worker) Add(t Task) bool {
	select {
	case w.in <- t:
		w.inLength.Add(1)
		return true
	default:
		return false
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		t, ok := w.pop(ctx)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue // timed out, loop to re-check shutdown
		}
		if !w.runInThread(t) {
			continue
		}
		w.syncMu.Lock()
		w.syncList = append(w.syncList, t)
		w.syncMu.Unlock()
	}
}

// runInThread calls t.InThread, recovering a panic so one malformed task
// (a bad decode, a corrupt snapshot) can't take the whole worker down. It
// reports whether the task should still be handed to Sync.
func (w *Worker) runInThread(t Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.droppedTasks.Add(1)
			ok = false
		}
	}()
	t.InThread()
	return true
}

// DroppedTasks reports how many tasks were discarded after a recovered
// panic in InThread or Sync.
func (w *Worker) DroppedTasks() int64 { return w.droppedTasks.Load() }

// pop blocks up to popTimeout for a task, or returns immediately if the
// worker is shutting down.
func (w *Worker) pop(ctx context.Context) (Task, bool) {
	timer := time.NewTimer(popTimeout)
	defer timer.Stop()
	select {
	case t := <-w.in:
		w.inLength.Add(-1)
		return t, true
	case <-ctx.Done():
		return nil, false
	case <-timer.C:
		return nil, false
	}
}

// DrainSync runs Sync on every task that finished InThread since the last
// call, in FIFO order, and returns how many ran. Call once per frame from
// the main thread.
func (w *Worker) DrainSync() int {
	w.syncMu.Lock()
	ready := w.syncList
	w.syncList = nil
	w.syncMu.Unlock()

	for _, t := range ready {
		w.runSync(t)
	}
	return len(ready)
}

// runSync calls t.Sync, recovering a panic the same way runInThread does.
func (w *Worker) runSync(t Task) {
	defer func() {
		if r := recover(); r != nil {
			w.droppedTasks.Add(1)
		}
	}()
	t.Sync()
}

// Close stops the worker goroutine. Tasks still in the in queue or sync
// queue are discarded without running Sync, matching the no-cancellation-
// but-discard-on-shutdown contract: nothing references them afterward and
// they are garbage collected.
func (w *Worker) Close() {
	w.cancel()
	<-w.done
}
