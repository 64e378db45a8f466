// Package sim wires pmem, swapdev, pagetable, vma, process, sched, and
// dispatch together into a running simulation: one goroutine per logical
// CPU pulling PCBs off the configured scheduler and ticking them until
// they finish, are killed, or yield at the end of their slice.
//
// The worker loop's shape — a persistent goroutine driven by a done
// channel and a sync.WaitGroup, with a Stop that closes done and waits
// with a timeout — follows emu/core/core.go's CPU loop in the teacher
// repo.
package sim

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rcornwell/oscore/dispatch"
	"github.com/rcornwell/oscore/metrics"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/process"
	"github.com/rcornwell/oscore/sched"
	"github.com/rcornwell/oscore/swapdev"
)

// defaultInstructionCostNsec is the simulated wall-clock cost of one
// instruction, used to convert a CFS nanosecond time slice into a count
// of instructions to run before yielding.
const defaultInstructionCostNsec = 1_000_000

// defaultQuantum is the number of instructions RoundRobin and
// MultiLevelQueue let a PCB run before yielding — those two policies
// express their fairness through pick order and aging slots, not a
// per-task nanosecond budget, so a fixed instruction quantum is enough.
const defaultQuantum = 4

// Simulator owns every shared resource a CPU worker needs: physical
// memory, the swap device pool, the scheduler, the process table, and
// metrics/logging. sched.outer in the lock hierarchy (§5) is this
// struct's mu: workers hold it only around pick/add/yield, never while
// touching a PCB's own memory map.
type Simulator struct {
	mu        sync.Mutex
	scheduler sched.Scheduler
	procs     map[uint32]*process.PCB

	// RunID identifies this simulation run in logs — useful once more
	// than one Simulator runs in the same process, as the test suite
	// does routinely.
	RunID uuid.UUID

	ram  *pmem.Memory
	swap *swapdev.Pool

	reg *metrics.Registry
	log *slog.Logger

	quantum             int
	instructionCostNsec int64

	wg      sync.WaitGroup
	done    chan struct{}
	running bool
}

// New creates a Simulator ready to run numCPUs workers against the
// given scheduler policy, physical memory, and swap pool.
func New(scheduler sched.Scheduler, ram *pmem.Memory, swap *swapdev.Pool, reg *metrics.Registry, log *slog.Logger) *Simulator {
	return &Simulator{
		scheduler:           scheduler,
		procs:               make(map[uint32]*process.PCB),
		RunID:               uuid.New(),
		ram:                 ram,
		swap:                swap,
		reg:                 reg,
		log:                 log,
		quantum:             defaultQuantum,
		instructionCostNsec: defaultInstructionCostNsec,
		done:                make(chan struct{}),
	}
}

// AddProcess registers p with the simulation and makes it runnable.
func (s *Simulator) AddProcess(p *process.PCB) {
	s.mu.Lock()
	s.procs[p.PID] = p
	s.scheduler.Add(p)
	s.mu.Unlock()
	s.reg.ProcessesAlive.Inc()
}

// Run starts numCPUs worker goroutines, each independently picking,
// ticking, and yielding PCBs until Stop is called or every process has
// finished.
func (s *Simulator) Run(numCPUs int) {
	s.running = true
	s.log.Info("simulation run starting", "run_id", s.RunID, "cpus", numCPUs)
	for i := 0; i < numCPUs; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop signals every worker to exit and waits up to one second for them
// to drain.
func (s *Simulator) Stop() {
	close(s.done)
	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(time.Second):
		s.log.Warn("timed out waiting for CPU workers to finish")
	}
}

func (s *Simulator) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		default:
		}

		p, ok := s.pick()
		if !ok {
			s.mu.Lock()
			idle := len(s.procs) == 0
			s.mu.Unlock()
			if idle {
				// Nothing queued and nothing running on another CPU.
				return
			}
			time.Sleep(time.Millisecond)
			continue
		}
		if !s.alive(p.PID) {
			// Killed by SYS_KILLALL while it was off the scheduler's
			// queues (picked or running on a CPU), where killAll's
			// RemoveWhere could not reach it: its memory was already
			// released, just drop it.
			continue
		}

		s.reg.ContextSwitch.Inc()
		ran := s.runSlice(p)

		if p.Finished() {
			s.retire(p)
			continue
		}
		if _, isCFS := s.scheduler.(*sched.CFS); isCFS {
			sched.AccountRuntime(p, ran)
		}
		s.mu.Lock()
		s.scheduler.Yield(p)
		s.mu.Unlock()
	}
}

// alive reports whether pid is still registered (not finished, not
// killed).
func (s *Simulator) alive(pid uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.procs[pid]
	return ok
}

// pick removes the next PCB to run from the scheduler under sched.outer.
func (s *Simulator) pick() (*process.PCB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Pick()
}

// runSlice ticks p one instruction at a time until it either finishes,
// faults, or exhausts its slice, and returns the simulated nanoseconds
// actually spent.
func (s *Simulator) runSlice(p *process.PCB) int64 {
	budget := s.instructions(p)
	var ran int64
	for i := 0; i < budget; i++ {
		err := dispatch.Tick(p, s.activeRAM(), s.activeSwap(), s.reg, s.log, s.killAll)
		ran += s.instructionCostNsec
		if err != nil {
			return ran
		}
	}
	return ran
}

// instructions computes how many instructions p may run this turn:
// CFS converts its nanosecond slice into instruction count; the other
// policies use the fixed quantum directly.
func (s *Simulator) instructions(p *process.PCB) int {
	cfs, ok := s.scheduler.(*sched.CFS)
	if !ok {
		return s.quantum
	}
	slice := cfs.TimeSlice(p)
	n := int(slice / s.instructionCostNsec)
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Simulator) activeRAM() *pmem.Memory { return s.ram }

func (s *Simulator) activeSwap() swapdev.Device {
	d, ok := s.swap.Active()
	if !ok {
		return noSwap{}
	}
	return d
}

// retire removes a finished PCB from the process table, returns its
// frames and swap slots, and updates metrics.
func (s *Simulator) retire(p *process.PCB) {
	p.MM.Release(s.ram, s.activeSwap())
	s.mu.Lock()
	delete(s.procs, p.PID)
	s.mu.Unlock()
	s.reg.ProcessesAlive.Dec()
	s.log.Info("process finished", "pid", p.PID, "name", p.Name)
}

// noSwap is used when no swap device was configured: every call fails
// as out-of-frames rather than panicking on a nil interface.
type noSwap struct{}

func (noSwap) Read(uint32) (byte, error)       { return 0, fmt.Errorf("no swap device configured") }
func (noSwap) Write(uint32, byte) error        { return fmt.Errorf("no swap device configured") }
func (noSwap) ReadFrame(uint32) ([]byte, error) {
	return nil, fmt.Errorf("no swap device configured")
}
func (noSwap) WriteFrame(uint32, []byte) error { return fmt.Errorf("no swap device configured") }
func (noSwap) GetFreeFrame() (uint32, bool)    { return 0, false }
func (noSwap) PutFreeFrame(uint32)             {}
func (noSwap) FrameSize() uint32               { return 0 }
