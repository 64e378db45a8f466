// Package vma implements per-process virtual memory areas (§4.3): free
// region tracking within an area, best-fit allocation with single-retry
// growth, and vm_end growth backed by pagetable's frame-mapping
// protocol.
//
// The free-region list is the owned-sequence redesign (spec.md §9) of
// the original's intrusively-linked vm_rg_struct chain: each VMA owns a
// plain, sorted slice of Region values, mutated only through Alloc/Free
// so no region is ever aliased between two owners.
package vma

import (
	"fmt"
	"sort"

	"github.com/rcornwell/oscore/pagetable"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
)

// Region is a half-open byte range [Start, End) within a VMA's address
// space — either a free hole or a live allocation, depending on which
// list it lives in.
type Region struct {
	Start uint32
	End   uint32
}

// Size returns End - Start.
func (r Region) Size() uint32 { return r.End - r.Start }

// VMA is one virtual memory area (§3 "VMA"): a contiguous address range
// [Start, End) a process has reserved, with its own free-region list and
// current break (Sbrk).
type VMA struct {
	ID    uint32
	Start uint32
	End   uint32
	Sbrk  uint32

	freeList []Region // sorted by Start, no two entries touching or overlapping
}

// AddressSpace is the full set of VMAs belonging to one process (the
// vm_area_struct linked list in the original, here a slice the caller
// indexes by id).
type AddressSpace struct {
	areas []*VMA
}

// NewAddressSpace creates an empty address space.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{}
}

// AddVMA creates and registers a new area spanning [start, end), with no
// free regions yet.
func (as *AddressSpace) AddVMA(id, start, end uint32) *VMA {
	v := &VMA{ID: id, Start: start, End: end, Sbrk: end}
	as.areas = append(as.areas, v)
	return v
}

// Get returns the area with the given id.
func (as *AddressSpace) Get(id uint32) (*VMA, bool) {
	for _, v := range as.areas {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// overlaps reports whether [start, end) intersects any area other than
// exclude.
func (as *AddressSpace) overlaps(exclude *VMA, start, end uint32) bool {
	for _, v := range as.areas {
		if v == exclude {
			continue
		}
		if start < v.End && v.Start < end {
			return true
		}
	}
	return false
}

// insertFree inserts r into v's free list in sorted position, coalescing
// with a left and/or right neighbor it touches exactly — the owned-
// sequence analog of enlist_vm_freerg_list.
func (v *VMA) insertFree(r Region) {
	list := v.freeList
	idx := sort.Search(len(list), func(i int) bool { return list[i].Start >= r.Start })

	merged := r
	// Merge with the left neighbor if it abuts merged.Start.
	if idx > 0 && list[idx-1].End == merged.Start {
		merged.Start = list[idx-1].Start
		list = append(list[:idx-1], list[idx:]...)
		idx--
	}
	// Merge with the right neighbor if it abuts merged.End.
	if idx < len(list) && list[idx].Start == merged.End {
		merged.End = list[idx].End
		list = append(list[:idx], list[idx+1:]...)
	}

	list = append(list, Region{})
	copy(list[idx+1:], list[idx:])
	list[idx] = merged
	v.freeList = list
}

// bestFit scans v's free list for the smallest region that fits size,
// removing it (or shrinking it, if larger than needed) on success.
func (v *VMA) bestFit(size uint32) (Region, bool) {
	best := -1
	for i, r := range v.freeList {
		if r.Size() < size {
			continue
		}
		if best == -1 || r.Size() < v.freeList[best].Size() {
			best = i
		}
	}
	if best == -1 {
		return Region{}, false
	}

	found := v.freeList[best]
	taken := Region{Start: found.Start, End: found.Start + size}
	if found.Size() == size {
		v.freeList = append(v.freeList[:best], v.freeList[best+1:]...)
	} else {
		v.freeList[best].Start = found.Start + size
	}
	return taken, true
}

// Alloc implements get_free_vmrg_area plus the growth fallback of
// __alloc (§4.3): satisfy size from the area's free list by best fit,
// or — on a miss — grow the area by only the shortfall past whatever
// free space already abuts vm_end (tail_free), then retry the best-fit
// scan exactly once against the merged result. Mirrors the original's
// "retry exactly once" shape: there is no second growth attempt within
// a single Alloc call.
func (as *AddressSpace) Alloc(vmaid, size uint32, pt *pagetable.PageTable, ram *pmem.Memory, swap swapdev.Device) (Region, error) {
	v, ok := as.Get(vmaid)
	if !ok {
		return Region{}, fmt.Errorf("vma %d: %w", vmaid, simerr.ErrInvalidRegion)
	}

	if r, ok := v.bestFit(size); ok {
		return r, nil
	}

	// bestFit just failed, so any tail_free region is necessarily
	// smaller than size — otherwise bestFit would have taken it.
	tailFree := v.takeTailFree()
	needed := size - tailFree.Size()

	oldEnd, err := as.IncLimit(vmaid, needed, pt, ram, swap)
	if err != nil {
		// Growth failed: the tail-free region taken above still belongs
		// to v, so put it back before returning.
		if tailFree.Size() > 0 {
			v.insertFree(tailFree)
		}
		return Region{}, err
	}

	// inc_vma_limit grows by pageAlign(needed) bytes, not needed itself;
	// merge the whole freshly mapped span onto tailFree before retrying
	// the best-fit scan, so both the reused tail and any page-alignment
	// slack are available to satisfy size in one carve.
	grown := Region{Start: tailFree.Start, End: oldEnd + pageAlign(needed)}
	if tailFree.Size() == 0 {
		grown.Start = oldEnd
	}
	v.insertFree(grown)

	r, ok := v.bestFit(size)
	if !ok {
		return Region{}, fmt.Errorf("vma %d: growth retry still short of %d bytes: %w", vmaid, size, simerr.ErrInvalidRegion)
	}
	return r, nil
}

// takeTailFree removes and returns the free region abutting v.End, or
// the zero Region if none exists.
func (v *VMA) takeTailFree() Region {
	for i, r := range v.freeList {
		if r.End == v.End {
			v.freeList = append(v.freeList[:i], v.freeList[i+1:]...)
			return r
		}
	}
	return Region{}
}

// Free implements the enlist side of __free_region: return [start, end)
// to vmaid's free list, coalescing with any adjacent free region.
func (as *AddressSpace) Free(vmaid uint32, r Region) error {
	v, ok := as.Get(vmaid)
	if !ok {
		return fmt.Errorf("vma %d: %w", vmaid, simerr.ErrInvalidRegion)
	}
	v.insertFree(r)
	return nil
}

// IncLimit implements inc_vma_limit (§4.3): grow vmaid's end by incSz
// bytes, rounded up to a whole number of pages, after checking the new
// range does not overlap any sibling VMA, then map each new page via
// pagetable's fresh-frame protocol. Returns the area's end before
// growth (the start of the newly usable range) on success.
func (as *AddressSpace) IncLimit(vmaid, incSz uint32, pt *pagetable.PageTable, ram *pmem.Memory, swap swapdev.Device) (uint32, error) {
	v, ok := as.Get(vmaid)
	if !ok {
		return 0, fmt.Errorf("vma %d: %w", vmaid, simerr.ErrInvalidRegion)
	}

	alignedInc := pageAlign(incSz)
	oldEnd := v.End
	newEnd := oldEnd + alignedInc

	if as.overlaps(v, oldEnd, newEnd) {
		return 0, fmt.Errorf("vma %d grow to %d: %w", vmaid, newEnd, simerr.ErrOverlapVMA)
	}

	firstPgn := oldEnd / pagetable.PageSize
	lastPgn := (newEnd - 1) / pagetable.PageSize
	for pgn := firstPgn; pgn <= lastPgn; pgn++ {
		if err := pt.MapFreshPage(pgn, ram, swap); err != nil {
			// Partial mapping is a documented limitation (§4.3 step 5):
			// earlier pages in this loop stay mapped even though the
			// area's bookkeeping below never advances to claim them.
			return 0, err
		}
	}

	v.End = newEnd
	v.Sbrk = newEnd
	return oldEnd, nil
}

func pageAlign(size uint32) uint32 {
	ps := pagetable.PageSize
	return ((size + ps - 1) / ps) * ps
}
