// Package pagetable implements the per-process page directory, the PTE
// bitfield layout, and the FIFO-based page-fault/swap protocol of §4.2.
package pagetable

// PTE is a 32-bit page-table entry bitfield (§3 "PTE (32-bit bitfield)").
//
// Layout, low bit first:
//
//	bit 0        P   present
//	bit 1        S   swapped
//	bit 2        D   dirty
//	bits 8-23    FPN   frame number, valid when P=1 S=0
//	bits 8-15    SWPTYP swap device id, valid when S=1
//	bits 16-31   SWPOFF swap slot offset, valid when S=1
//
// (P, S) is constrained to {(0,0) unmapped, (1,0) resident, (0,1) or
// (1,1) swapped} — see invariant in §3 and testable property 3 in §8.
type PTE uint32

const (
	bitPresent uint32 = 1 << 0
	bitSwapped uint32 = 1 << 1
	bitDirty   uint32 = 1 << 2

	fpnShift    = 8
	fpnMask     = 0x00ffff00
	swptypShift = 8
	swptypMask  = 0x0000ff00
	swpoffShift = 16
	swpoffMask  = 0xffff0000
)

// Present reports whether the P bit is set.
func (p PTE) Present() bool { return uint32(p)&bitPresent != 0 }

// Swapped reports whether the S bit is set.
func (p PTE) Swapped() bool { return uint32(p)&bitSwapped != 0 }

// Dirty reports whether the D bit is set.
func (p PTE) Dirty() bool { return uint32(p)&bitDirty != 0 }

// Mapped reports whether the page has ever been assigned a location,
// resident or swapped. An unmapped PTE (P=0, S=0) means the virtual page
// has never been touched by vm_map_ram.
func (p PTE) Mapped() bool { return p.Present() || p.Swapped() }

// FPN returns the resident frame number. Only meaningful when
// Present() && !Swapped().
func (p PTE) FPN() uint32 { return (uint32(p) & fpnMask) >> fpnShift }

// SwapType returns the swap device id. Only meaningful when Swapped().
func (p PTE) SwapType() uint32 { return (uint32(p) & swptypMask) >> swptypShift }

// SwapOffset returns the swap slot offset. Only meaningful when Swapped().
func (p PTE) SwapOffset() uint32 { return (uint32(p) & swpoffMask) >> swpoffShift }

// Resident builds a PTE marking a page present in frame fpn.
func Resident(fpn uint32) PTE {
	return PTE(bitPresent | ((fpn << fpnShift) & fpnMask))
}

// SwappedOut builds a PTE marking a page swapped to device swptyp at
// slot swpoff.
func SwappedOut(swptyp, swpoff uint32) PTE {
	return PTE(bitSwapped |
		((swptyp << swptypShift) & swptypMask) |
		((swpoff << swpoffShift) & swpoffMask))
}

// Unmapped is the zero-value PTE: never mapped.
const Unmapped PTE = 0
