// Package scheduler provides a bounded fleet of single-goroutine executors.
//
// Every connection binds to exactly one executor and mutates its state only
// from tasks running on it, which serializes all state transitions of a
// connection without locks. The fleet is an explicit object constructed at
// driver initialization; there is no process-wide singleton.
package scheduler
