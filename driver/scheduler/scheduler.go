package scheduler

import (
	"runtime"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/PauloFerreira25/velostream/driver/common"
)

var Logger = logger.GetLogger("scheduler")

// --------------------------------------------------------------------------
// Executor
// --------------------------------------------------------------------------

// Executor runs scheduled tasks sequentially on a single dedicated
// goroutine. Tasks scheduled from one goroutine run in the order they were
// scheduled. A task scheduled from the executor goroutine itself is
// enqueued behind the already pending tasks, never run inline.
type Executor struct {
	mbox *mailbox
	done chan struct{}
}

func newExecutor() *Executor {
	e := &Executor{
		mbox: newMailbox(),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

// run drains the mailbox until shutdown
func (e *Executor) run() {
	defer close(e.done)
	for {
		task, ok := e.mbox.pop()
		if !ok {
			return
		}
		task()
	}
}

// Schedule enqueues a task for execution on the executor goroutine. It
// never blocks the caller. Scheduling after shutdown returns a UsageError.
func (e *Executor) Schedule(task func()) error {
	if !e.mbox.push(task) {
		return &common.UsageError{Reason: "executor is shut down"}
	}
	return nil
}

// Shutdown stops the executor once the already scheduled tasks finished and
// waits for its goroutine to exit. Idempotent.
func (e *Executor) Shutdown() {
	e.mbox.close()
	<-e.done
}

// --------------------------------------------------------------------------
// Fleet
// --------------------------------------------------------------------------

// Fleet owns a fixed set of executors and hands them out round-robin. It is
// an explicit object constructed at driver initialization and passed to
// each connection; there is no process-wide state.
type Fleet struct {
	executors []*Executor
	cursor    atomic.Uint64
}

// NewFleet creates a fleet of the given size. A size below 1 defaults to
// the number of CPUs.
func NewFleet(size int) *Fleet {
	if size < 1 {
		size = runtime.NumCPU()
	}
	Logger.Debugf("creating executor fleet of size %d", size)

	executors := make([]*Executor, size)
	for i := range executors {
		executors[i] = newExecutor()
	}
	return &Fleet{executors: executors}
}

// Next returns the next executor in round-robin order
func (f *Fleet) Next() *Executor {
	index := f.cursor.Add(1) - 1
	return f.executors[index%uint64(len(f.executors))]
}

// Size returns the number of executors in the fleet
func (f *Fleet) Size() int {
	return len(f.executors)
}

// Shutdown stops every executor and waits for their goroutines. Connections
// bound to the fleet must be closed first.
func (f *Fleet) Shutdown() {
	for _, e := range f.executors {
		e.Shutdown()
	}
}
