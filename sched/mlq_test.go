package sched

import (
	"testing"

	"github.com/rcornwell/oscore/process"
)

func TestMultiLevelQueuePicksHighestPriorityFirst(t *testing.T) {
	m := NewMultiLevelQueue()
	m.Add(newPCB(1, 0))
	m.Add(newPCB(2, 1))
	m.Add(newPCB(3, 2))
	m.Add(newPCB(4, 3))

	var order []uint32
	for i := 0; i < 4; i++ {
		p, ok := m.Pick()
		if !ok {
			t.Fatalf("Pick() %d: ok = false", i)
		}
		order = append(order, p.PID)
	}
	want := []uint32{1, 2, 3, 4}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("pick order = %v, want %v", order, want)
			break
		}
	}
	if !m.Empty() {
		t.Error("Empty() = false after draining every level")
	}
}

func TestMultiLevelQueuePriorityZeroBeforeLowestLevel(t *testing.T) {
	m := NewMultiLevelQueue()
	// One task at the lowest priority level and one at priority 0, added
	// in that order: the rotation starts at level 0, so the priority-0
	// task is picked first regardless of arrival order.
	m.Add(newPCB(1, process.MaxPrio-1))
	m.Add(newPCB(2, 0))

	p, ok := m.Pick()
	if !ok || p.PID != 2 {
		t.Fatalf("first pick = %v (ok=%v), want pid 2 (priority 0 serviced first)", p, ok)
	}
}
