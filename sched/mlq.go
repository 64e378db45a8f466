package sched

import "github.com/rcornwell/oscore/process"

// MultiLevelQueue implements the aging priority scheduler (§4.4): one
// FIFO ready queue per priority level 0 (highest) .. MaxPrio-1, serviced
// in rotation. Each visit to priority p is allowed slot(p) = MaxPrio - p
// picks before curr_prio rotates to the next level — so the highest
// priority gets the most consecutive picks and the lowest gets one,
// while the rotation still reaches every non-empty level once per sweep
// so low-priority work is never starved.
type MultiLevelQueue struct {
	queues    [process.MaxPrio][]*process.PCB
	curPrio   int
	slotsLeft int
}

// NewMultiLevelQueue creates an empty multi-level queue scheduler.
func NewMultiLevelQueue() *MultiLevelQueue {
	return &MultiLevelQueue{slotsLeft: slotFor(0)}
}

func slotFor(prio int) int {
	return process.MaxPrio - prio
}

// Add appends p to its priority level's ready queue.
func (m *MultiLevelQueue) Add(p *process.PCB) {
	prio := clampPrio(p.Priority)
	m.queues[prio] = append(m.queues[prio], p)
}

func clampPrio(prio int) int {
	if prio < 0 {
		return 0
	}
	if prio >= process.MaxPrio {
		return process.MaxPrio - 1
	}
	return prio
}

// Pick returns the next PCB to run, rotating curr_prio past any level
// that is currently empty or whose slot allowance has been used up.
func (m *MultiLevelQueue) Pick() (*process.PCB, bool) {
	for tries := 0; tries < process.MaxPrio; tries++ {
		if len(m.queues[m.curPrio]) == 0 || m.slotsLeft == 0 {
			m.advance()
			continue
		}
		q := m.queues[m.curPrio]
		p := q[0]
		m.queues[m.curPrio] = q[1:]
		m.slotsLeft--
		if m.slotsLeft == 0 {
			m.advance()
		}
		return p, true
	}
	return nil, false
}

// advance rotates curr_prio to the next level and resets its slot
// allowance.
func (m *MultiLevelQueue) advance() {
	m.curPrio = (m.curPrio + 1) % process.MaxPrio
	m.slotsLeft = slotFor(m.curPrio)
}

// Yield re-adds p to its priority level, same as Add: aging operates on
// curr_prio's rotation, not on the PCB's own priority.
func (m *MultiLevelQueue) Yield(p *process.PCB) {
	m.Add(p)
}

// Empty reports whether every priority level's queue is empty.
func (m *MultiLevelQueue) Empty() bool {
	for _, q := range m.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}

// RemoveWhere deletes every PCB satisfying match from every priority
// level's queue and reports how many were removed.
func (m *MultiLevelQueue) RemoveWhere(match func(p *process.PCB) bool) int {
	removed := 0
	for prio := range m.queues {
		m.queues[prio], removed = filterOut(m.queues[prio], match, removed)
	}
	return removed
}
