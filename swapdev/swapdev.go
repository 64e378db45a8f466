// Package swapdev defines the swap-device contract pagetable swaps pages
// against, and a small in-memory implementation used by tests and the
// demo CLI.
//
// Per spec.md §1, the real backing store for swap is an external
// collaborator — only the interface it must expose matters to pagetable.
// The interface shape follows emu/device/device.go's Device abstraction
// in the teacher repo (a minimal capability interface implemented by
// several concrete peripherals); here the capability is "byte-addressable
// storage with a free-frame pool", identical in shape to pmem.Memory's
// public contract, because a swap device conceptually is just more
// frames living behind a slower path.
package swapdev

import "github.com/rcornwell/oscore/pmem"

// Device is the contract pagetable needs from a swap backing store:
// byte I/O, whole-frame copies, and a free-frame pool to hand out swap
// slots from.
type Device interface {
	Read(addr uint32) (byte, error)
	Write(addr uint32, data byte) error
	ReadFrame(fpn uint32) ([]byte, error)
	WriteFrame(fpn uint32, data []byte) error
	GetFreeFrame() (fpn uint32, ok bool)
	PutFreeFrame(fpn uint32)
	FrameSize() uint32
}

// memDevice adapts a pmem.Memory to serve as a swap device — the same
// frame-addressable storage shape, used for a different purpose.
type memDevice struct {
	*pmem.Memory
}

// New creates an in-memory swap device with the given capacity and frame
// size (frame size must match the paging frame size it backs).
func New(totalBytes, frameSize uint32) Device {
	return memDevice{pmem.New(totalBytes, frameSize)}
}

// Pool tracks the swap devices configured for a simulation run. §6's
// config format allows more than one (swap_count, swap_size[]); §4.2
// only ever refers to "the active swap device", so Pool exposes exactly
// one Active() choice today (see SPEC_FULL.md §E.4 for the rationale)
// while keeping pagetable and vma written against the single-device
// Device interface so a future selection policy is a Pool-only change.
type Pool struct {
	devices []Device
}

// NewPool creates an empty swap device pool.
func NewPool() *Pool {
	return &Pool{}
}

// Register adds a swap device to the pool.
func (p *Pool) Register(d Device) {
	p.devices = append(p.devices, d)
}

// Active returns the swap device new swap traffic is directed to, and
// false if no swap device has been registered.
func (p *Pool) Active() (Device, bool) {
	if len(p.devices) == 0 {
		return nil, false
	}
	return p.devices[0], true
}

// Count returns the number of registered swap devices.
func (p *Pool) Count() int { return len(p.devices) }
