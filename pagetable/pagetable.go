package pagetable

import (
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
)

// PageSize is PAGING_PAGESZ: the byte size of one page / physical frame.
const PageSize uint32 = 256

// MaxPageNumber is PAGING_MAX_PGN: the number of page-directory slots a
// process has, i.e. the largest addressable virtual page number + 1.
const MaxPageNumber uint32 = 1 << 12

// byteStore is the read/write capability both pmem.Memory and
// swapdev.Device expose; copyFrame only needs this much of either.
type byteStore interface {
	Read(addr uint32) (byte, error)
	Write(addr uint32, data byte) error
}

// PageTable is one process's page directory plus its FIFO residency
// queue (§3 "mm", §4.2).
//
// The FIFO queue is the owned-sequence redesign of the original's
// intrusively-linked pgn_t list (spec.md §9): a plain slice, oldest
// entry at index 0, mutated only through enqueue/dequeue helpers so no
// pgn is ever reachable from two places at once.
type PageTable struct {
	entries [MaxPageNumber]PTE
	fifo    []uint32
}

// New creates an empty page table: every page unmapped, no resident
// pages queued for eviction.
func New() *PageTable {
	return &PageTable{}
}

// Entry returns the raw PTE for pgn, for inspection/tests.
func (pt *PageTable) Entry(pgn uint32) PTE { return pt.entries[pgn] }

// FIFOSnapshot returns a copy of the current residency queue, oldest
// first, for tests asserting property 3 and scenario S4.
func (pt *PageTable) FIFOSnapshot() []uint32 {
	out := make([]uint32, len(pt.fifo))
	copy(out, pt.fifo)
	return out
}

func (pt *PageTable) dequeueFIFO() (pgn uint32, ok bool) {
	if len(pt.fifo) == 0 {
		return 0, false
	}
	pgn = pt.fifo[0]
	pt.fifo = pt.fifo[1:]
	return pgn, true
}

func (pt *PageTable) requeueFront(pgn uint32) {
	pt.fifo = append([]uint32{pgn}, pt.fifo...)
}

func (pt *PageTable) enqueueBack(pgn uint32) {
	pt.fifo = append(pt.fifo, pgn)
}

// copyFrame byte-copies one full frame from src at srcFPN to dst at
// dstFPN, mirroring __swap_cp_page's cell-by-cell loop in the original
// C source over PAGING_PAGESZ.
func copyFrame(src byteStore, srcFPN uint32, dst byteStore, dstFPN uint32) error {
	for cell := uint32(0); cell < PageSize; cell++ {
		data, err := src.Read(srcFPN*PageSize + cell)
		if err != nil {
			return err
		}
		if err := dst.Write(dstFPN*PageSize+cell, data); err != nil {
			return err
		}
	}
	return nil
}

// GetPage implements pg_getpage (§4.2): ensures pgn is resident, faulting
// it in via the FIFO swap protocol if it is currently swapped out.
// Returns ErrInvalidPage if pgn was never mapped, ErrOutOfFrames if no
// victim or no swap slot is available. A failed fault leaves all PTEs
// and the FIFO queue unchanged.
func (pt *PageTable) GetPage(pgn uint32, ram *pmem.Memory, swap swapdev.Device) (uint32, error) {
	pte := pt.entries[pgn]
	if pte.Present() && !pte.Swapped() {
		return pte.FPN(), nil
	}
	if !pte.Mapped() {
		return 0, simerr.ErrInvalidPage
	}

	// pte is swapped out: fault it back in by trading places with a
	// FIFO victim that is currently resident.
	vicpgn, ok := pt.dequeueFIFO()
	if !ok {
		return 0, simerr.ErrOutOfFrames
	}
	vicpte := pt.entries[vicpgn]
	vicfpn := vicpte.FPN()

	swpfpn, ok := swap.GetFreeFrame()
	if !ok {
		pt.requeueFront(vicpgn)
		return 0, simerr.ErrOutOfFrames
	}

	targetSwpOff := pte.SwapOffset()

	if err := copyFrame(ram, vicfpn, swap, swpfpn); err != nil {
		swap.PutFreeFrame(swpfpn)
		pt.requeueFront(vicpgn)
		return 0, err
	}
	if err := copyFrame(swap, targetSwpOff, ram, vicfpn); err != nil {
		swap.PutFreeFrame(swpfpn)
		pt.requeueFront(vicpgn)
		return 0, err
	}

	pt.entries[vicpgn] = SwappedOut(0, swpfpn)
	pt.entries[pgn] = Resident(vicfpn)
	pt.enqueueBack(pgn)

	return vicfpn, nil
}

// GetVal implements pg_getval: translate addr to (pgn, off), fault the
// page in if needed, and read the byte from physical memory.
func (pt *PageTable) GetVal(addr uint32, ram *pmem.Memory, swap swapdev.Device) (byte, error) {
	pgn := addr / PageSize
	off := addr % PageSize
	fpn, err := pt.GetPage(pgn, ram, swap)
	if err != nil {
		return 0, err
	}
	return ram.Read(fpn*PageSize + off)
}

// SetVal implements pg_setval: translate addr to (pgn, off), fault the
// page in if needed, and write the byte to physical memory.
func (pt *PageTable) SetVal(addr uint32, value byte, ram *pmem.Memory, swap swapdev.Device) error {
	pgn := addr / PageSize
	off := addr % PageSize
	fpn, err := pt.GetPage(pgn, ram, swap)
	if err != nil {
		return err
	}
	return ram.Write(fpn*PageSize+off, value)
}

// MapFreshPage assigns pgn a brand-new resident frame, obtaining one
// from ram's free pool directly or, on exhaustion, evicting a FIFO
// victim to swap (§4.3 step 4, vm_map_ram/alloc_pages_range in the
// original source). Unlike GetPage's fault path this is not rolled back
// on partial failure: §4.3 step 5 documents that a failure partway
// through mapping a multi-page growth leaves earlier pages mapped.
func (pt *PageTable) MapFreshPage(pgn uint32, ram *pmem.Memory, swap swapdev.Device) error {
	fpn, ok := ram.GetFreeFrame()
	if !ok {
		vicpgn, ok := pt.dequeueFIFO()
		if !ok {
			return simerr.ErrOutOfFrames
		}
		vicpte := pt.entries[vicpgn]
		vicfpn := vicpte.FPN()

		swpfpn, ok := swap.GetFreeFrame()
		if !ok {
			pt.requeueFront(vicpgn)
			return simerr.ErrOutOfFrames
		}
		if err := copyFrame(ram, vicfpn, swap, swpfpn); err != nil {
			swap.PutFreeFrame(swpfpn)
			pt.requeueFront(vicpgn)
			return err
		}
		pt.entries[vicpgn] = SwappedOut(0, swpfpn)
		fpn = vicfpn
	}

	pt.entries[pgn] = Resident(fpn)
	pt.enqueueBack(pgn)
	return nil
}

// Release implements the corrected direction of free_pcb_memph (spec.md
// §9 redesign note: the original inverts the present/swapped check).
// Every resident page's frame goes back to ram; every swapped page's
// slot goes back to the swap device. Called when a process finishes or
// is killed.
func (pt *PageTable) Release(ram *pmem.Memory, swap swapdev.Device) {
	for pgn := range pt.entries {
		pte := pt.entries[pgn]
		switch {
		case pte.Present() && !pte.Swapped():
			ram.PutFreeFrame(pte.FPN())
		case pte.Swapped():
			swap.PutFreeFrame(pte.SwapOffset())
		}
		pt.entries[pgn] = Unmapped
	}
	pt.fifo = nil
}
