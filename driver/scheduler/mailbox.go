package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// taskNode represents a single element in the mailbox
type taskNode struct {
	task func()
	next atomic.Pointer[taskNode]
}

// mailbox is a lock-free multi-producer single-consumer queue of tasks.
// Any number of goroutines may push concurrently; a single executor
// goroutine consumes. Implementation uses a linked list of nodes with
// atomic operations for concurrent push operations without locks.
type mailbox struct {
	head   atomic.Pointer[taskNode]
	tail   atomic.Pointer[taskNode]
	closed atomic.Bool

	// Condition variable for efficient waiting
	mu   sync.Mutex
	cond *sync.Cond
}

// newMailbox creates a mailbox with a sentinel node at the beginning
func newMailbox() *mailbox {
	sentinel := &taskNode{}

	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	m.head.Store(sentinel)
	m.tail.Store(sentinel)
	return m
}

// push adds a task to the mailbox.
// Returns true if the task was added, or false if the mailbox is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mailbox) push(task func()) bool {
	if task == nil {
		return false
	}
	if m.closed.Load() {
		return false
	}

	newNode := &taskNode{task: task}

	var backoff uint8 = 0
	for {
		tailNode := m.tail.Load()

		// try to atomically append our node to the current tail
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// Successfully appended, now try to update tail. CAS may
				// fail if another producer helps update tail, but that's
				// okay - tail will still be updated eventually.
				m.tail.CompareAndSwap(tailNode, newNode)

				// Signal the consumer that new data is available
				m.cond.Signal()
				return true
			}
		} else {
			// help update the tail pointer if another producer has already
			// appended a node but hasn't updated the tail yet
			m.tail.CompareAndSwap(tailNode, next)
		}

		// Exponential backoff to handle contention: spin at low contention,
		// yield the processor at higher contention.
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// pop removes and returns the oldest task. It blocks until a task is
// available and returns false only when the mailbox is closed and drained.
func (m *mailbox) pop() (func(), bool) {
	for {
		head := m.head.Load()
		next := head.next.Load()

		if next != nil {
			// Capture the task before updating pointers
			task := next.task

			// move head pointer (free up memory)
			m.head.Store(next)

			// help go gc - safe to clear after capturing
			next.task = nil
			return task, true
		}

		if m.closed.Load() {
			return nil, false
		}

		m.mu.Lock()
		// Double-check condition after acquiring lock
		head = m.head.Load()
		if head.next.Load() == nil && !m.closed.Load() {
			// Wait for signal (releases lock while waiting)
			m.cond.Wait()
		}
		m.mu.Unlock()
	}
}

// close closes the mailbox, preventing further pushes. Tasks already
// enqueued are still delivered to the consumer.
func (m *mailbox) close() {
	m.closed.Store(true)
	m.cond.Signal()
}
