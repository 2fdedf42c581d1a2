package mmu

// PTE is a single page-table entry, laid out as Sv32/Sv39 share it: a PPN
// field, two reserved-for-software bits, and the D/A/G/U/X/W/R/V flag octet.
// Field accessors follow original_source/pte.h's Pte32/Pte64 naming.
type PTE uint64

const (
	pteV = 1 << 0
	pteR = 1 << 1
	pteW = 1 << 2
	pteX = 1 << 3
	pteU = 1 << 4
	pteG = 1 << 5
	pteA = 1 << 6
	pteD = 1 << 7

	pteRSWShift = 8
	pteRSWMask  = 0x3

	pptePPNShift = 10
)

func (p PTE) V() bool { return p&pteV != 0 }
func (p PTE) R() bool { return p&pteR != 0 }
func (p PTE) W() bool { return p&pteW != 0 }
func (p PTE) X() bool { return p&pteX != 0 }
func (p PTE) U() bool { return p&pteU != 0 }
func (p PTE) G() bool { return p&pteG != 0 }
func (p PTE) A() bool { return p&pteA != 0 }
func (p PTE) D() bool { return p&pteD != 0 }

func (p PTE) RSW() uint64 { return (uint64(p) >> pteRSWShift) & pteRSWMask }

// PPN returns the raw physical-page-number field, shifted out of the flag
// octet but not yet reassembled with the VPN bits a superpage leaves unset.
func (p PTE) PPN() uint64 { return uint64(p) >> pptePPNShift }

// IsLeaf reports whether this PTE terminates the walk (R or X set); a
// non-leaf PTE (R=W=X=0) points at the next-level table.
func (p PTE) IsLeaf() bool { return p.R() || p.X() }

// IsValid reports V=1 with no reserved R=0,W=1 combination.
func (p PTE) IsValid() bool { return p.V() && (p.R() || !p.W()) }

func (p *PTE) setA() { *p |= pteA }
func (p *PTE) setD() { *p |= pteD }
