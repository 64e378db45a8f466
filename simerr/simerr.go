// Package simerr defines the error kinds shared by the scheduler and
// virtual-memory packages.
//
// The original C simulator returns small integer result codes from every
// call site (§7 of the design spec); the Go redesign represents the same
// six kinds as sentinel errors instead, checked with errors.Is and wrapped
// with fmt.Errorf("%w", ...) when crossing a component boundary so a log
// line can show both the low-level cause and where it was caught.
package simerr

import "errors"

var (
	// ErrOutOfFrames means physical memory and the active swap device are
	// both exhausted: no frame can be freed to satisfy a request.
	ErrOutOfFrames = errors.New("out of frames: pmem and swap both exhausted")

	// ErrOverlapVMA means a proposed address range collides with an
	// existing VMA other than the one being grown.
	ErrOverlapVMA = errors.New("proposed range overlaps an existing vma")

	// ErrInvalidRegion means a region id is outside
	// [0, PAGING_MAX_SYMTBL_SZ) or refers to a cleared symbol-table slot.
	ErrInvalidRegion = errors.New("invalid or cleared region id")

	// ErrInvalidPage means a page fault occurred against a page table
	// entry that was never mapped.
	ErrInvalidPage = errors.New("invalid page access: page never mapped")

	// ErrBadAddress means a physical address fell outside pmem's range.
	ErrBadAddress = errors.New("physical address out of range")

	// ErrFinishedProgram is not a failure: it reports that a PCB's
	// program counter has run past the end of its instruction vector.
	ErrFinishedProgram = errors.New("program finished")
)
