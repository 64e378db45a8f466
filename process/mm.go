package process

import (
	"fmt"

	"github.com/rcornwell/oscore/pagetable"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
	"github.com/rcornwell/oscore/vma"
)

// symRegion is one symrgtbl slot: the region it names, and whether the
// slot currently holds a live binding. A zero-value Region cannot
// distinguish "never allocated" from "legitimately empty", hence the
// explicit Valid flag rather than testing Region == vma.Region{}.
type symRegion struct {
	Region vma.Region
	Valid  bool
}

// MM is a process's memory map (§3 "mm"): its page directory, its
// virtual memory areas, and the named-region table synthetic programs
// address ALLOC/FREE/READ/WRITE through.
type MM struct {
	Pgd      *pagetable.PageTable
	Areas    *vma.AddressSpace
	symrgtbl [MaxSymTableSize]symRegion
}

// NewMM creates an empty memory map with one VMA spanning [0, size).
func NewMM(vmaID, size uint32) *MM {
	as := vma.NewAddressSpace()
	as.AddVMA(vmaID, 0, size)
	return &MM{
		Pgd:   pagetable.New(),
		Areas: as,
	}
}

// Alloc implements the ALLOC opcode's memory-side effect (§4.5): request
// size bytes in vmaID, bind the result into symrgtbl slot regionID, page
// in every page the region covers (one GetPage per page), and return the
// region's start address so the caller can write it into the
// destination register ALLOC names.
func (mm *MM) Alloc(vmaID uint32, size uint32, regionID int, ram *pmem.Memory, swap swapdev.Device) (uint32, error) {
	if regionID < 0 || regionID >= MaxSymTableSize {
		return 0, fmt.Errorf("region %d: %w", regionID, simerr.ErrInvalidRegion)
	}
	r, err := mm.Areas.Alloc(vmaID, size, mm.Pgd, ram, swap)
	if err != nil {
		return 0, err
	}
	mm.symrgtbl[regionID] = symRegion{Region: r, Valid: true}
	if r.Size() > 0 {
		for pgn := r.Start / pagetable.PageSize; pgn <= (r.End-1)/pagetable.PageSize; pgn++ {
			if _, err := mm.Pgd.GetPage(pgn, ram, swap); err != nil {
				return 0, err
			}
		}
	}
	return r.Start, nil
}

// Free implements the FREE opcode: return the region bound to regionID
// to its VMA's free list and clear the slot.
func (mm *MM) Free(vmaID uint32, regionID int) error {
	sr, err := mm.region(regionID)
	if err != nil {
		return err
	}
	if err := mm.Areas.Free(vmaID, sr.Region); err != nil {
		return err
	}
	mm.symrgtbl[regionID] = symRegion{}
	return nil
}

// region looks up a bound symrgtbl slot, failing if the slot is out of
// range or was never allocated.
func (mm *MM) region(regionID int) (symRegion, error) {
	if regionID < 0 || regionID >= MaxSymTableSize {
		return symRegion{}, fmt.Errorf("region %d: %w", regionID, simerr.ErrInvalidRegion)
	}
	sr := mm.symrgtbl[regionID]
	if !sr.Valid {
		return symRegion{}, fmt.Errorf("region %d: %w", regionID, simerr.ErrInvalidRegion)
	}
	return sr, nil
}

// ReadByte implements the READ opcode: load the byte at offset within
// the region bound to regionID.
func (mm *MM) ReadByte(regionID int, offset uint32, ram *pmem.Memory, swap swapdev.Device) (byte, error) {
	sr, err := mm.region(regionID)
	if err != nil {
		return 0, err
	}
	addr := sr.Region.Start + offset
	if addr >= sr.Region.End {
		return 0, fmt.Errorf("region %d offset %d: %w", regionID, offset, simerr.ErrBadAddress)
	}
	return mm.Pgd.GetVal(addr, ram, swap)
}

// WriteByte implements the WRITE opcode: store value at offset within
// the region bound to regionID.
func (mm *MM) WriteByte(regionID int, offset uint32, value byte, ram *pmem.Memory, swap swapdev.Device) error {
	sr, err := mm.region(regionID)
	if err != nil {
		return err
	}
	addr := sr.Region.Start + offset
	if addr >= sr.Region.End {
		return fmt.Errorf("region %d offset %d: %w", regionID, offset, simerr.ErrBadAddress)
	}
	return mm.Pgd.SetVal(addr, value, ram, swap)
}

// Release returns every frame and swap slot this memory map holds back
// to ram and swap — the corrected free_pcb_memph direction (§9),
// delegated straight to pagetable since the page directory is the only
// thing here that holds frames.
func (mm *MM) Release(ram *pmem.Memory, swap swapdev.Device) {
	mm.Pgd.Release(ram, swap)
}
