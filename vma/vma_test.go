package vma

import (
	"errors"
	"testing"

	"github.com/rcornwell/oscore/pagetable"
	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
)

func newStores(frames uint32) (*pmem.Memory, swapdev.Device) {
	ram := pmem.New(frames*pagetable.PageSize, pagetable.PageSize)
	swap := swapdev.New(frames*pagetable.PageSize, pagetable.PageSize)
	return ram, swap
}

func TestAllocGrowsWhenFreeListEmpty(t *testing.T) {
	as := NewAddressSpace()
	as.AddVMA(0, 0, 0)
	pt := pagetable.New()
	ram, swap := newStores(8)

	r, err := as.Alloc(0, 10, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if r.Start != 0 || r.Size() != 10 {
		t.Errorf("Alloc region = %+v, want start=0 size=10", r)
	}

	v, _ := as.Get(0)
	if v.End != pagetable.PageSize {
		t.Errorf("vma.End after growth = %d, want %d (one page)", v.End, pagetable.PageSize)
	}
}

func TestAllocBestFitReusesFreedRegion(t *testing.T) {
	as := NewAddressSpace()
	as.AddVMA(0, 0, 0)
	pt := pagetable.New()
	ram, swap := newStores(8)

	a, err := as.Alloc(0, 10, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc a: %v", err)
	}
	b, err := as.Alloc(0, 20, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc b: %v", err)
	}
	if err := as.Free(0, a); err != nil {
		t.Fatalf("Free a: %v", err)
	}

	// A request that fits the freed 10-byte hole exactly must reuse it
	// rather than growing the area again.
	oldEnd, _ := as.Get(0)
	endBefore := oldEnd.End

	c, err := as.Alloc(0, 10, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc c: %v", err)
	}
	if c != a {
		t.Errorf("Alloc c = %+v, want reuse of freed region %+v", c, a)
	}

	v, _ := as.Get(0)
	if v.End != endBefore {
		t.Errorf("vma grew on a request that should have reused free space: End %d -> %d", endBefore, v.End)
	}
	_ = b
}

func TestFreeCoalescesAdjacentRegions(t *testing.T) {
	as := NewAddressSpace()
	as.AddVMA(0, 0, 0)
	pt := pagetable.New()
	ram, swap := newStores(8)

	a, err := as.Alloc(0, 10, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc a: %v", err)
	}
	b, err := as.Alloc(0, 10, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc b: %v", err)
	}
	if a.End != b.Start {
		t.Fatalf("test setup assumption broken: a=%+v b=%+v not adjacent", a, b)
	}

	if err := as.Free(0, a); err != nil {
		t.Fatalf("Free a: %v", err)
	}
	if err := as.Free(0, b); err != nil {
		t.Fatalf("Free b: %v", err)
	}

	v, _ := as.Get(0)
	// The first Alloc's page-aligned growth also left [b.End, v.End) as
	// reclaimed slack in the free list, so freeing a and b coalesces
	// everything back into one region spanning the whole area.
	if len(v.freeList) != 1 {
		t.Fatalf("freeList = %+v, want a single coalesced entry", v.freeList)
	}
	merged := v.freeList[0]
	if merged.Start != a.Start || merged.End != v.End {
		t.Errorf("merged region = %+v, want [%d,%d)", merged, a.Start, v.End)
	}
}

// TestAllocGrowthReusesTailFreeShortfallOnly reproduces spec.md §8
// scenario S3: after an initial 200-byte allocation leaves a 56-byte
// page-alignment remainder at the tail of the area, a second 300-byte
// request must grow the area by only the shortfall past that remainder
// (300-56=244, page-aligned to 256) rather than by the full 300 bytes,
// landing the new region at [200,500) rather than over-growing to
// [256,556).
func TestAllocGrowthReusesTailFreeShortfallOnly(t *testing.T) {
	as := NewAddressSpace()
	as.AddVMA(0, 0, 0)
	pt := pagetable.New()
	ram, swap := newStores(8)

	r0, err := as.Alloc(0, 200, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc r0: %v", err)
	}
	if r0.Start != 0 || r0.End != 200 {
		t.Fatalf("r0 = %+v, want [0,200)", r0)
	}

	r1, err := as.Alloc(0, 300, pt, ram, swap)
	if err != nil {
		t.Fatalf("Alloc r1: %v", err)
	}
	if r1.Start != 200 || r1.End != 500 {
		t.Fatalf("r1 = %+v, want [200,500) (tail-free-aware growth)", r1)
	}
}

func TestIncLimitRejectsOverlap(t *testing.T) {
	as := NewAddressSpace()
	as.AddVMA(0, 0, pagetable.PageSize)
	as.AddVMA(1, pagetable.PageSize, 2*pagetable.PageSize)
	pt := pagetable.New()
	ram, swap := newStores(8)

	_, err := as.IncLimit(0, pagetable.PageSize, pt, ram, swap)
	if !errors.Is(err, simerr.ErrOverlapVMA) {
		t.Fatalf("IncLimit into vma 1's range: err = %v, want ErrOverlapVMA", err)
	}
}

func TestIncLimitUnknownVMA(t *testing.T) {
	as := NewAddressSpace()
	pt := pagetable.New()
	ram, swap := newStores(8)

	if _, err := as.IncLimit(99, 10, pt, ram, swap); !errors.Is(err, simerr.ErrInvalidRegion) {
		t.Fatalf("IncLimit(unknown vma): err = %v, want ErrInvalidRegion", err)
	}
}
