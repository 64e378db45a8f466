package sched

import "github.com/rcornwell/oscore/process"

// CFS implements the completely fair scheduler (§4.4): runnable PCBs
// live in a red-black tree keyed by (vruntime, pid), Pick always
// extracts the leftmost (least-owed) entry, and each task's allotted
// time slice is proportional to its scheduling weight against the total
// weight of everything currently runnable.
type CFS struct {
	tree        rbTree
	totalWeight int64
}

// NewCFS creates an empty completely fair scheduler.
func NewCFS() *CFS {
	return &CFS{}
}

// weightForNice computes WEIGHT_NORM << ((-nice)/10) for nice <= 0, or
// WEIGHT_NORM >> (nice/10) for nice > 0 (§4.4): each ten points of nice
// halves or doubles a task's share of the CPU relative to nice 0.
func weightForNice(nice int) int64 {
	if nice <= 0 {
		return process.WeightNorm << uint(-nice/10)
	}
	return process.WeightNorm >> uint(nice/10)
}

// Add enqueues p at its current vruntime, assigning it a weight from its
// nice value the first time it is seen (Weight == 0).
func (c *CFS) Add(p *process.PCB) {
	if p.CFS.Weight == 0 {
		p.CFS.Weight = weightForNice(p.CFS.Nice)
	}
	c.tree.Insert(rbKey{vruntime: p.CFS.VRuntime, pid: p.PID}, p)
	c.totalWeight += p.CFS.Weight
}

// TimeSlice returns the nanosecond slice for p, the task Pick just
// returned: SchedLatencyNsec apportioned by p's share of the weight of
// every runnable task (the tasks still in the tree plus p itself),
// floored at MinGranularityNsec. The zero guard covers the otherwise-
// undefined case of a task with no registered weight being asked for a
// slice before it has ever been added.
func (c *CFS) TimeSlice(p *process.PCB) int64 {
	total := c.totalWeight + p.CFS.Weight
	if total == 0 {
		return process.MinGranularityNsec
	}
	slice := process.SchedLatencyNsec * p.CFS.Weight / total
	if slice < process.MinGranularityNsec {
		return process.MinGranularityNsec
	}
	return slice
}

// Pick extracts the PCB with the smallest (vruntime, pid) key.
func (c *CFS) Pick() (*process.PCB, bool) {
	n := c.tree.Min()
	if n == nil {
		return nil, false
	}
	p := n.value.(*process.PCB)
	c.tree.Delete(n)
	c.totalWeight -= p.CFS.Weight
	return p, true
}

// Yield re-inserts p at its current (vruntime, pid) key. It does not
// touch vruntime itself: AccountRuntime applies the elapsed time first.
func (c *CFS) Yield(p *process.PCB) {
	c.tree.Insert(rbKey{vruntime: p.CFS.VRuntime, pid: p.PID}, p)
	c.totalWeight += p.CFS.Weight
}

// AccountRuntime applies the vruntime update formula for deltaRanNsec of
// actual execution against p's weight, without re-enqueuing it. Callers
// running the dispatch loop call this before Yield so the key Yield
// inserts under already reflects the time just spent.
func AccountRuntime(p *process.PCB, deltaRanNsec int64) {
	if p.CFS.Weight == 0 {
		p.CFS.Weight = weightForNice(p.CFS.Nice)
	}
	divisor := p.CFS.Weight
	if divisor < process.WeightNorm {
		divisor = process.WeightNorm
	}
	p.CFS.VRuntime += deltaRanNsec * process.WeightNorm / divisor
}

// Empty reports whether no PCB is currently runnable.
func (c *CFS) Empty() bool {
	return c.tree.Len() == 0
}

// RemoveWhere deletes every PCB satisfying match from the tree and
// reports how many were removed.
func (c *CFS) RemoveWhere(match func(p *process.PCB) bool) int {
	removed := c.tree.RemoveWhere(func(v interface{}) bool { return match(v.(*process.PCB)) })
	for _, v := range removed {
		c.totalWeight -= v.(*process.PCB).CFS.Weight
	}
	return len(removed)
}
