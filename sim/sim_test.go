package sim

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rcornwell/oscore/metrics"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/process"
	"github.com/rcornwell/oscore/sched"
	"github.com/rcornwell/oscore/swapdev"
)

func newTestSimulator() (*Simulator, *metrics.Registry) {
	ram := pmem.New(64*1024, 256)
	swap := swapdev.NewPool()
	swap.Register(swapdev.New(64*1024, 256))
	reg := metrics.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(sched.NewRoundRobin(), ram, swap, reg, log), reg
}

func TestSimulatorRunsProcessToCompletion(t *testing.T) {
	s, reg := newTestSimulator()
	code := []process.Instruction{
		{Op: process.ALLOC, Arg0: 4, Arg1: 0},
		{Op: process.WRITE, Arg0: 0, Arg1: 0, Arg2: 1},
		{Op: process.FREE, Arg0: 0},
	}
	s.AddProcess(process.NewPCB(1, "demo", 0, code, process.DefaultVMAID, 0))

	s.Run(1)
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(reg.ProcessesAlive) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if got := testutil.ToFloat64(reg.ProcessesAlive); got != 0 {
		t.Errorf("ProcessesAlive after run = %v, want 0", got)
	}
}

func TestSimulatorKillAllRemovesProcess(t *testing.T) {
	s, reg := newTestSimulator()
	longCode := make([]process.Instruction, 0, 1000)
	for i := 0; i < 1000; i++ {
		longCode = append(longCode, process.Instruction{Op: process.CALC})
	}
	s.AddProcess(process.NewPCB(1, "victim", 0, longCode, process.DefaultVMAID, 0))

	killed := s.KillAll("victim")
	if killed != 1 {
		t.Fatalf("KillAll = %d, want 1", killed)
	}
	if got := testutil.ToFloat64(reg.ProcessesAlive); got != 0 {
		t.Errorf("ProcessesAlive after KillAll = %v, want 0", got)
	}
	// killAll must remove the victim from the scheduler's own queues
	// immediately, not merely from the process table, so a worker can
	// never Pick it again.
	if !s.scheduler.Empty() {
		t.Error("scheduler not empty immediately after KillAll")
	}
}
