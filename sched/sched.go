// Package sched implements the three interchangeable CPU schedulers
// (§4.4): round-robin, multi-level queue with aging, and the completely
// fair scheduler. All three satisfy the same Scheduler contract so
// dispatch and sim can be written against the interface and swap
// policies by construction choice alone.
package sched

import "github.com/rcornwell/oscore/process"

// Scheduler is the contract every policy in this package implements:
// add a runnable PCB, pick the next one to run, and return a PCB that
// yielded (used its slice but is still runnable) to the ready set.
//
// RemoveWhere gives killall (§6) a way to strip matching PCBs out of
// whatever internal queues or tree a policy keeps, rather than leaving
// them to be picked and silently dropped later.
type Scheduler interface {
	Add(p *process.PCB)
	Pick() (*process.PCB, bool)
	Yield(p *process.PCB)
	Empty() bool
	RemoveWhere(match func(p *process.PCB) bool) int
}
