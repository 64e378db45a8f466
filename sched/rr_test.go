package sched

import (
	"testing"

	"github.com/rcornwell/oscore/process"
)

func TestRoundRobinFIFOOrder(t *testing.T) {
	rr := NewRoundRobin()
	rr.Add(newPCB(1, 0))
	rr.Add(newPCB(2, 0))
	rr.Add(newPCB(3, 0))

	for _, want := range []uint32{1, 2, 3} {
		p, ok := rr.Pick()
		if !ok {
			t.Fatalf("Pick(): ok = false, want PCB %d", want)
		}
		if p.PID != want {
			t.Errorf("Pick() = pid %d, want %d", p.PID, want)
		}
	}
	if !rr.Empty() {
		t.Error("Empty() = false after draining every PCB")
	}
}

func TestRoundRobinYieldGoesToTail(t *testing.T) {
	rr := NewRoundRobin()
	a := newPCB(1, 0)
	b := newPCB(2, 0)
	rr.Add(a)
	rr.Add(b)

	picked, _ := rr.Pick() // a
	rr.Yield(picked)       // a goes to the back, behind b

	p, _ := rr.Pick()
	if p.PID != 2 {
		t.Fatalf("Pick() after yield = pid %d, want 2", p.PID)
	}
	p, _ = rr.Pick()
	if p.PID != 1 {
		t.Fatalf("Pick() after yield = pid %d, want 1", p.PID)
	}
}

// TestRoundRobinAddMidRoundJoinsCurrentRound exercises the two-queue
// split (§4.4.1): a PCB Add-ed after some PCBs have already yielded this
// round must still be picked before the round boundary recycles the
// yielded ones back in — a single-queue FIFO would instead place it
// behind them.
func TestRoundRobinAddMidRoundJoinsCurrentRound(t *testing.T) {
	rr := NewRoundRobin()
	a := newPCB(1, 0)
	b := newPCB(2, 0)
	rr.Add(a)
	rr.Add(b)

	picked, _ := rr.Pick() // a
	rr.Yield(picked)       // a has used this round's slice, waits in run

	c := newPCB(3, 0)
	rr.Add(c) // arrives mid-round, onto ready behind b

	p, _ := rr.Pick()
	if p.PID != 2 {
		t.Fatalf("Pick() after mid-round Add = pid %d, want 2 (b, still in this round's ready)", p.PID)
	}
	p, _ = rr.Pick()
	if p.PID != 3 {
		t.Fatalf("Pick() after mid-round Add = pid %d, want 3 (c, joined this round)", p.PID)
	}
	p, _ = rr.Pick()
	if p.PID != 1 {
		t.Fatalf("Pick() at round boundary = pid %d, want 1 (a, recycled from run)", p.PID)
	}
}

func TestRoundRobinRemoveWhere(t *testing.T) {
	rr := NewRoundRobin()
	a := newPCB(1, 0)
	b := newPCB(2, 0)
	c := newPCB(3, 0)
	rr.Add(a)
	rr.Add(b)
	picked, _ := rr.Pick() // a moves out of ready
	rr.Yield(picked)       // a now sits in run
	rr.Add(c)

	removed := rr.RemoveWhere(func(p *process.PCB) bool { return p.PID == 1 })
	if removed != 1 {
		t.Fatalf("RemoveWhere() = %d, want 1", removed)
	}

	var got []uint32
	for {
		p, ok := rr.Pick()
		if !ok {
			break
		}
		got = append(got, p.PID)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("remaining PIDs = %v, want [2 3]", got)
	}
}
