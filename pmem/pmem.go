// Package pmem implements the flat physical-memory store (§4.1): a byte
// array divided into fixed-size frames plus a free-frame pool.
//
// pmem is passive storage — all eviction and mapping policy lives in
// pagetable and vma. The byte array and free-list layout follow
// emu/memory/memory.go in the teacher repo (a single flat array indexed
// by shifted address, no internal locking); the free-frame pool is the
// owned-sequence redesign of an intrusive list per the design note in
// spec.md §9: a plain slice used as a LIFO stack, not a linked list of
// heap nodes.
package pmem

import (
	"fmt"

	"github.com/rcornwell/oscore/simerr"
)

// Memory is a fixed-size byte store divided into frames of FrameSize
// bytes, with a free-frame pool callers draw from and return to.
//
// Memory has no internal synchronization: per §4.1 and §5, all concurrency
// control is the caller's responsibility (the owning process's mm lock).
type Memory struct {
	storage   []byte
	frameSize uint32
	numFrames uint32
	freeFrame []uint32 // LIFO free-frame pool, head = last element
}

// New creates a Memory of the given total size, divided into frames of
// frameSize bytes. All frames start free.
func New(totalBytes, frameSize uint32) *Memory {
	if frameSize == 0 {
		frameSize = 1
	}
	numFrames := totalBytes / frameSize
	m := &Memory{
		storage:   make([]byte, totalBytes),
		frameSize: frameSize,
		numFrames: numFrames,
		freeFrame: make([]uint32, numFrames),
	}
	for i := uint32(0); i < numFrames; i++ {
		m.freeFrame[i] = i
	}
	return m
}

// FrameSize returns the configured frame size in bytes.
func (m *Memory) FrameSize() uint32 { return m.frameSize }

// NumFrames returns the total number of frames this store holds.
func (m *Memory) NumFrames() uint32 { return m.numFrames }

// Size returns the total addressable byte size.
func (m *Memory) Size() uint32 { return uint32(len(m.storage)) }

// FreeFrames returns the number of frames currently in the free pool.
func (m *Memory) FreeFrames() int { return len(m.freeFrame) }

// CheckAddr reports whether addr is within range.
func (m *Memory) CheckAddr(addr uint32) bool { return addr < uint32(len(m.storage)) }

// Read returns the byte at addr, or ErrBadAddress if out of range.
func (m *Memory) Read(addr uint32) (byte, error) {
	if !m.CheckAddr(addr) {
		return 0, fmt.Errorf("pmem read addr=%d: %w", addr, simerr.ErrBadAddress)
	}
	return m.storage[addr], nil
}

// Write stores data at addr, or returns ErrBadAddress if out of range.
func (m *Memory) Write(addr uint32, data byte) error {
	if !m.CheckAddr(addr) {
		return fmt.Errorf("pmem write addr=%d: %w", addr, simerr.ErrBadAddress)
	}
	m.storage[addr] = data
	return nil
}

// GetFreeFrame pops a frame number off the free pool. ok is false if the
// pool is empty.
func (m *Memory) GetFreeFrame() (fpn uint32, ok bool) {
	n := len(m.freeFrame)
	if n == 0 {
		return 0, false
	}
	fpn = m.freeFrame[n-1]
	m.freeFrame = m.freeFrame[:n-1]
	return fpn, true
}

// PutFreeFrame pushes fpn back onto the free pool. Callers must ensure a
// frame number is returned at most once before it is reused — pmem does
// not track which frames are currently lent out.
func (m *Memory) PutFreeFrame(fpn uint32) {
	m.freeFrame = append(m.freeFrame, fpn)
}

// ReadFrame copies one full frame's bytes starting at fpn*FrameSize.
func (m *Memory) ReadFrame(fpn uint32) ([]byte, error) {
	start := fpn * m.frameSize
	end := start + m.frameSize
	if end > uint32(len(m.storage)) {
		return nil, fmt.Errorf("pmem read frame=%d: %w", fpn, simerr.ErrBadAddress)
	}
	buf := make([]byte, m.frameSize)
	copy(buf, m.storage[start:end])
	return buf, nil
}

// WriteFrame overwrites one full frame's bytes starting at fpn*FrameSize.
func (m *Memory) WriteFrame(fpn uint32, data []byte) error {
	start := fpn * m.frameSize
	end := start + m.frameSize
	if end > uint32(len(m.storage)) {
		return fmt.Errorf("pmem write frame=%d: %w", fpn, simerr.ErrBadAddress)
	}
	copy(m.storage[start:end], data)
	return nil
}
