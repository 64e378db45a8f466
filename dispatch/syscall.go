package dispatch

import (
	"fmt"

	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/process"
	"github.com/rcornwell/oscore/swapdev"
)

// Syscall numbers, named after __sys_memmap's dispatch table in the
// original source (sys_mem.c) plus the process-management call it
// shares a table with (sys_killall.c).
const (
	SysMemMap  = 0
	SysMemInc  = 1
	SysMemSwap = 2
	SysIORead  = 3
	SysIOWrite = 4
	SysKillAll = 5
)

// maxNameLen bounds the NUL-terminated name SysKillAll reads out of a
// process's memory, so a program that forgets the terminator faults
// instead of looping until it walks off the VMA.
const maxNameLen = 256

// KillAllFunc terminates every process named name and reports how many
// were killed. Dispatch has no visibility into the process table beyond
// the PCB it is currently ticking, so sim supplies this callback rather
// than dispatch importing sim.
type KillAllFunc func(name string) int

// Syscall implements the SYSCALL opcode's side effect (§4.5, dispatch
// table at §6): a1/a2/a3 carry the per-call arguments the table assigns
// them.
//
//   - SysMemMap: reserved, no-op.
//   - SysMemInc: a1=vmaid, a2=inc_bytes — grows the VMA via vma.IncLimit.
//   - SysMemSwap: a1=src_fpn, a2=dst_fpn — byte-copies one physical frame.
//   - SysIORead: a1=phys_addr, a3=dst_reg — reads one byte from pmem and
//     stores it in regs[a3] (a3 names a register rather than literally
//     holding the output value, the same convention ALLOC/READ use,
//     since a value can't be handed back through a plain argument slot).
//   - SysIOWrite: a1=phys_addr, a2=value — writes one byte to pmem.
//   - SysKillAll: a3=region id of a NUL-terminated name string — kills
//     every process with that name.
func Syscall(p *process.PCB, num int, a1, a2, a3 int32, ram *pmem.Memory, swap swapdev.Device, killAll KillAllFunc) error {
	switch num {
	case SysMemMap:
		return nil
	case SysMemInc:
		_, err := p.MM.Areas.IncLimit(uint32(a1), uint32(a2), p.MM.Pgd, ram, swap)
		return err
	case SysMemSwap:
		return copyRAMFrame(ram, uint32(a1), uint32(a2))
	case SysIORead:
		value, err := ram.Read(uint32(a1))
		if err != nil {
			return err
		}
		return setReg(p, a3, int64(value))
	case SysIOWrite:
		return ram.Write(uint32(a1), byte(a2))
	case SysKillAll:
		if killAll == nil {
			return nil
		}
		name, err := readCString(p, int(a3), ram, swap)
		if err != nil {
			return err
		}
		killAll(name)
		return nil
	default:
		return fmt.Errorf("pid %d: unknown syscall %d", p.PID, num)
	}
}

// copyRAMFrame byte-copies one full frame from srcFPN to dstFPN within
// ram, implementing SysMemSwap's "byte-copies one frame" semantics (§6)
// directly against physical memory.
func copyRAMFrame(ram *pmem.Memory, srcFPN, dstFPN uint32) error {
	data, err := ram.ReadFrame(srcFPN)
	if err != nil {
		return err
	}
	return ram.WriteFrame(dstFPN, data)
}

// readCString reads the NUL-terminated name bound to regionID, byte by
// byte, advancing the read offset every iteration.
//
// The original sys_killall.c resets its read index back to where it
// started on every iteration (`int tmp = i; ...; i = tmp`), so the loop
// never advances past the first byte and can never find the NUL
// terminator; this corrected version simply advances off on every
// iteration (spec.md §9 redesign note).
func readCString(p *process.PCB, regionID int, ram *pmem.Memory, swap swapdev.Device) (string, error) {
	var buf []byte
	for off := uint32(0); off < maxNameLen; off++ {
		b, err := p.MM.ReadByte(regionID, off, ram, swap)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", fmt.Errorf("pid %d region %d: name exceeds %d bytes without a terminator", p.PID, regionID, maxNameLen)
}
