// Package dispatch implements the fetch-execute step every scheduled
// PCB goes through on a tick (§4.5): decode one instruction, apply its
// memory or syscall side effect, and report whether the program has
// more to run.
//
// The fetch-decode-execute shape follows emu/cpu/cpu.go's instruction
// loop in the teacher repo, cut down to six synthetic opcodes instead of
// a full instruction set.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/rcornwell/oscore/metrics"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/process"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
)

// Tick executes exactly one instruction of p against the given backing
// memory, reporting metrics and logging as it goes. It returns
// simerr.ErrFinishedProgram once p's program counter has run past the
// end of its code, at which point the caller should retire p rather
// than reschedule it.
func Tick(p *process.PCB, ram *pmem.Memory, swap swapdev.Device, reg *metrics.Registry, log *slog.Logger, killAll KillAllFunc) error {
	ins, ok := p.Fetch()
	if !ok {
		return simerr.ErrFinishedProgram
	}

	reg.Dispatched.WithLabelValues(ins.Op.String()).Inc()

	var err error
	switch ins.Op {
	case process.CALC:
		// Pure CPU time: no side effect beyond the tick itself.
	case process.ALLOC:
		var start uint32
		start, err = p.MM.Alloc(process.DefaultVMAID, uint32(ins.Arg0), int(ins.Arg1), ram, swap)
		if err == nil {
			err = setReg(p, ins.Arg1, int64(start))
		}
	case process.FREE:
		err = p.MM.Free(process.DefaultVMAID, int(ins.Arg0))
	case process.READ:
		var value byte
		value, err = p.MM.ReadByte(int(ins.Arg0), uint32(ins.Arg1), ram, swap)
		if err == nil {
			err = setReg(p, ins.Arg2, int64(value))
		}
	case process.WRITE:
		err = p.MM.WriteByte(int(ins.Arg0), uint32(ins.Arg1), byte(ins.Arg2), ram, swap)
	case process.SYSCALL:
		err = Syscall(p, int(ins.Arg0), ins.Arg1, ins.Arg2, ins.Arg3, ram, swap, killAll)
	default:
		err = fmt.Errorf("pid %d pc %d: unknown opcode %d", p.PID, p.PC-1, ins.Op)
	}

	if err != nil {
		log.Warn("instruction fault",
			"pid", p.PID, "op", ins.Op.String(), "err", err)
		return err
	}
	return nil
}

// setReg stores value in p.Regs[reg], failing if reg names no register.
func setReg(p *process.PCB, reg int32, value int64) error {
	if reg < 0 || int(reg) >= process.NumRegisters {
		return fmt.Errorf("pid %d: register %d out of range [0,%d): %w", p.PID, reg, process.NumRegisters, simerr.ErrInvalidRegion)
	}
	p.Regs[reg] = value
	return nil
}
