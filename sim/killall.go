package sim

import "github.com/rcornwell/oscore/process"

// KillAll terminates every process named name, for use by operator
// tooling (the interactive console) as well as internally by the
// SYS_KILLALL syscall.
func (s *Simulator) KillAll(name string) int {
	return s.killAll(name)
}

// killAll implements the SYS_KILLALL syscall's effect (§4.5, grounded on
// sys_killall.c): terminate every process currently registered under
// the given name, pulling them out of both the process table and the
// scheduler's own queues in one sched.outer critical section so a
// worker can never Pick a PCB killAll is in the middle of tearing down.
// Memory release and bookkeeping happen after the lock is released,
// since MM.Release must never run while mm.vm_lock's caller is also
// holding sched.outer (§5's lock hierarchy).
//
// It is passed into dispatch.Tick as a dispatch.KillAllFunc so dispatch
// itself never needs visibility into the whole process table.
func (s *Simulator) killAll(name string) int {
	matches := func(p *process.PCB) bool { return p.Name == name }

	s.mu.Lock()
	var victims []*process.PCB
	for pid, p := range s.procs {
		if matches(p) {
			victims = append(victims, p)
			delete(s.procs, pid)
		}
	}
	s.scheduler.RemoveWhere(matches)
	s.mu.Unlock()

	for _, p := range victims {
		p.MM.Release(s.ram, s.activeSwap())
		s.reg.ProcessesAlive.Dec()
		s.log.Info("process killed", "pid", p.PID, "name", p.Name)
	}

	return len(victims)
}
