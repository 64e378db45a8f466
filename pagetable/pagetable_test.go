package pagetable

import (
	"errors"
	"testing"

	"github.com/rcornwell/oscore/pmem"
	"github.com/rcornwell/oscore/simerr"
	"github.com/rcornwell/oscore/swapdev"
)

func newTestStores(frames uint32) (*pmem.Memory, swapdev.Device) {
	ram := pmem.New(frames*PageSize, PageSize)
	swap := swapdev.New(frames*PageSize, PageSize)
	return ram, swap
}

func TestGetPageUnmapped(t *testing.T) {
	pt := New()
	ram, swap := newTestStores(4)
	if _, err := pt.GetPage(0, ram, swap); !errors.Is(err, simerr.ErrInvalidPage) {
		t.Fatalf("GetPage(unmapped) err = %v, want ErrInvalidPage", err)
	}
}

func TestMapFreshPageNoEviction(t *testing.T) {
	pt := New()
	ram, swap := newTestStores(4)

	if err := pt.MapFreshPage(0, ram, swap); err != nil {
		t.Fatalf("MapFreshPage: %v", err)
	}
	fpn, err := pt.GetPage(0, ram, swap)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !pt.Entry(0).Present() || pt.Entry(0).Swapped() {
		t.Errorf("pgn 0 PTE = %v, want present and not swapped", pt.Entry(0))
	}
	if got := pt.FIFOSnapshot(); len(got) != 1 || got[0] != 0 {
		t.Errorf("FIFOSnapshot() = %v, want [0]", got)
	}
	_ = fpn
}

func TestMapFreshPageEvictsFIFOOrder(t *testing.T) {
	pt := New()
	ram, swap := newTestStores(2) // only 2 frames: third mapping must evict pgn 0.

	for pgn := uint32(0); pgn < 2; pgn++ {
		if err := pt.MapFreshPage(pgn, ram, swap); err != nil {
			t.Fatalf("MapFreshPage(%d): %v", pgn, err)
		}
	}
	if err := pt.MapFreshPage(2, ram, swap); err != nil {
		t.Fatalf("MapFreshPage(2): %v", err)
	}

	if !pt.Entry(0).Swapped() {
		t.Errorf("pgn 0 should have been evicted first (FIFO), PTE = %v", pt.Entry(0))
	}
	if !pt.Entry(1).Present() || pt.Entry(1).Swapped() {
		t.Errorf("pgn 1 should still be resident, PTE = %v", pt.Entry(1))
	}
	if !pt.Entry(2).Present() || pt.Entry(2).Swapped() {
		t.Errorf("pgn 2 should be resident after mapping, PTE = %v", pt.Entry(2))
	}
}

func TestFaultRoundTripPreservesData(t *testing.T) {
	pt := New()
	// One RAM frame: the second page always evicts the first. Swap gets two
	// slots, since faulting pgn 0 back in takes a fresh slot for the
	// victim before pgn 0's own slot is read back.
	ram := pmem.New(PageSize, PageSize)
	swap := swapdev.New(2*PageSize, PageSize)

	if err := pt.MapFreshPage(0, ram, swap); err != nil {
		t.Fatalf("MapFreshPage(0): %v", err)
	}
	if err := pt.SetVal(0, 0xAB, ram, swap); err != nil {
		t.Fatalf("SetVal: %v", err)
	}

	// Mapping pgn 1 evicts pgn 0 to swap.
	if err := pt.MapFreshPage(1, ram, swap); err != nil {
		t.Fatalf("MapFreshPage(1): %v", err)
	}
	if !pt.Entry(0).Swapped() {
		t.Fatalf("pgn 0 PTE = %v, want swapped", pt.Entry(0))
	}

	// Faulting pgn 0 back in (evicting pgn 1 this time) must still see 0xAB.
	got, err := pt.GetVal(0, ram, swap)
	if err != nil {
		t.Fatalf("GetVal: %v", err)
	}
	if got != 0xAB {
		t.Errorf("GetVal(0) after fault round-trip = %#x, want 0xab", got)
	}
}

func TestRelease(t *testing.T) {
	pt := New()
	ram, swap := newTestStores(2)
	for pgn := uint32(0); pgn < 2; pgn++ {
		if err := pt.MapFreshPage(pgn, ram, swap); err != nil {
			t.Fatalf("MapFreshPage(%d): %v", pgn, err)
		}
	}
	if got := ram.FreeFrames(); got != 0 {
		t.Fatalf("FreeFrames() before Release = %d, want 0", got)
	}

	pt.Release(ram, swap)

	if got := ram.FreeFrames(); got != 2 {
		t.Errorf("FreeFrames() after Release = %d, want 2", got)
	}
	if pt.Entry(0) != Unmapped || pt.Entry(1) != Unmapped {
		t.Errorf("entries after Release: %v, %v, want both Unmapped", pt.Entry(0), pt.Entry(1))
	}
	if got := pt.FIFOSnapshot(); len(got) != 0 {
		t.Errorf("FIFOSnapshot() after Release = %v, want empty", got)
	}
}
