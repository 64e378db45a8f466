package sched

import "github.com/rcornwell/oscore/process"

// RoundRobin is the two-queue policy (§4.4.1): ready holds PCBs eligible
// to run this round, run holds PCBs that already ran and are waiting
// for the next round boundary. Keeping them separate means a PCB newly
// Add-ed mid-round is serviced before the PCBs that already yielded
// this round recycle back in.
//
// Both queues are plain slices used FIFO-style — the owned-sequence
// redesign of an intrusively-linked ready list (spec.md §9).
type RoundRobin struct {
	ready []*process.PCB
	run   []*process.PCB
}

// NewRoundRobin creates an empty round-robin scheduler.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Add enqueues p onto ready, eligible for this round.
func (r *RoundRobin) Add(p *process.PCB) {
	r.ready = append(r.ready, p)
}

// Pick dequeues the head of ready. If ready is empty and run holds
// anything, that is a round boundary: run moves to ready wholesale
// before dequeueing.
func (r *RoundRobin) Pick() (*process.PCB, bool) {
	if len(r.ready) == 0 {
		if len(r.run) == 0 {
			return nil, false
		}
		r.ready, r.run = r.run, r.ready[:0]
	}
	p := r.ready[0]
	r.ready = r.ready[1:]
	return p, true
}

// Yield enqueues p onto run: it has used this round's slice but is
// still runnable, so it waits for the next round boundary rather than
// rejoining ready immediately.
func (r *RoundRobin) Yield(p *process.PCB) {
	r.run = append(r.run, p)
}

// Empty reports whether both queues hold no PCBs.
func (r *RoundRobin) Empty() bool {
	return len(r.ready) == 0 && len(r.run) == 0
}

// RemoveWhere deletes every PCB satisfying match from both queues and
// reports how many were removed.
func (r *RoundRobin) RemoveWhere(match func(p *process.PCB) bool) int {
	removed := 0
	r.ready, removed = filterOut(r.ready, match, removed)
	r.run, removed = filterOut(r.run, match, removed)
	return removed
}

// filterOut returns queue with every PCB matching match dropped, plus
// the running removed count.
func filterOut(queue []*process.PCB, match func(p *process.PCB) bool, removed int) ([]*process.PCB, int) {
	kept := queue[:0]
	for _, p := range queue {
		if match(p) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	return kept, removed
}
