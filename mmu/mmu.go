// Package mmu implements virtual-to-physical address translation: a
// Sv32-style two-level walk for RV32 and a Sv39-style three-level walk for
// RV64, each backed by a direct-mapped TLB. Grounded on
// other_examples/tinyrange-cc__mmu.go, generalised to cover both XLENs and
// to read/write page-table entries through memory.Memory instead of a bus.
package mmu

import (
	"fmt"

	"github.com/rvcore/rvemu/memory"
	"github.com/rvcore/rvemu/riscv"
)

const PageShift = 12
const PageSize = 1 << PageShift

// Intent distinguishes the three kinds of access a translation serves;
// each carries its own permission bit and its own page-fault cause.
type Intent int

const (
	Read Intent = iota
	Write
	Execute
)

// walkConfig describes one paging mode's level count, per-level VPN width,
// and on-disk PTE size. Sv32 entries are 4 bytes; Sv39 entries are 8.
type walkConfig struct {
	levels     int
	vpnBits    uint
	entryBytes int
}

var (
	sv32 = walkConfig{levels: 2, vpnBits: 10, entryBytes: 4}
	sv39 = walkConfig{levels: 3, vpnBits: 9, entryBytes: 8}
)

// MMU owns the TLB. It is stateless with respect to privilege and CSR
// values: the hart passes satp/mstatus/priv on every call, since those
// belong to the hart's register file, not to the MMU.
type MMU struct {
	mem *memory.Memory
	tlb tlb
}

func New(mem *memory.Memory) *MMU {
	return &MMU{mem: mem}
}

// Translate resolves a virtual address for the given intent. xlen selects
// Sv32 (32) vs Sv39 (64) walk geometry; satp and mstatus are the raw CSR
// contents as the hart currently holds them.
func (m *MMU) Translate(va uint64, intent Intent, priv riscv.Priv, satp, mstatus uint64, xlen int) (uint64, error) {
	cfg, mode := modeOf(satp, xlen)
	if mode == riscv.SatpModeBare {
		return checkedPA(va, xlen, intent)
	}

	effectivePriv := priv
	if priv == riscv.Machine && intent != Execute && mstatus&riscv.StatusMPRV != 0 {
		effectivePriv = riscv.Priv((mstatus & riscv.StatusMPPMask) >> riscv.StatusMPPShift)
	}
	if effectivePriv == riscv.Machine {
		return checkedPA(va, xlen, intent)
	}

	asid := uint32((satp >> asidShift(xlen)) & 0xFFFF)
	vpn := va >> PageShift

	if e, ok := m.tlb.lookup(vpn, asid); ok {
		if err := checkPermissions(e.pte, intent, effectivePriv, mstatus, va); err != nil {
			return 0, err
		}
		if e.pte.A() && !(intent == Write && !e.pte.D()) {
			offset := va & (e.pageSize - 1)
			return checkedPA((e.ppn<<PageShift)|offset, xlen, intent)
		}
		// Stale A/D bits: fall through to a real walk so they get set.
	}

	pa, ppn, pte, pageSize, err := m.walk(va, intent, effectivePriv, mstatus, satp, cfg)
	if err != nil {
		return 0, err
	}
	m.tlb.insert(vpn, ppn, pte, pageSize, asid)
	return checkedPA(pa, xlen, intent)
}

// paBits is the physical address width this emulator enforces: 34 bits for
// the RV32/Sv32 class, 56 for the RV64/Sv39 class, matching the walker's
// own addressable range in each mode.
func paBits(xlen int) uint {
	if xlen == 32 {
		return 34
	}
	return 56
}

// checkedPA rejects a physical address outside [0, 2^paBits), raising the
// access-fault cause matching intent rather than silently reading/writing
// through it.
func checkedPA(pa uint64, xlen int, intent Intent) (uint64, error) {
	if pa>>paBits(xlen) != 0 {
		return 0, accessFault(intent, pa)
	}
	return pa, nil
}

func accessFault(intent Intent, pa uint64) error {
	switch intent {
	case Write:
		return &Fault{Cause: riscv.CauseStoreAccessFault, Addr: pa}
	case Execute:
		return &Fault{Cause: riscv.CauseInstrAccessFault, Addr: pa}
	default:
		return &Fault{Cause: riscv.CauseLoadAccessFault, Addr: pa}
	}
}

func modeOf(satp uint64, xlen int) (walkConfig, uint64) {
	if xlen == 32 {
		mode := (satp >> 31) & 0x1
		if mode == 0 {
			return sv32, riscv.SatpModeBare
		}
		return sv32, riscv.SatpModeSv32
	}
	mode := satp >> 60
	return sv39, mode
}

func asidShift(xlen int) uint {
	if xlen == 32 {
		return 22
	}
	return 44
}

func rootPPN(satp uint64, xlen int) uint64 {
	if xlen == 32 {
		return satp & 0x3FFFFF
	}
	return satp & 0xFFFFFFFFFFF
}

func (m *MMU) walk(va uint64, intent Intent, priv riscv.Priv, mstatus, satp uint64, cfg walkConfig) (pa, ppn uint64, leaf PTE, pageSize uint64, err error) {
	xlen := 64
	if cfg.entryBytes == 4 {
		xlen = 32
	}
	tableAddr := rootPPN(satp, xlen) << PageShift
	pageSize = PageSize

	for level := cfg.levels - 1; level >= 0; level-- {
		shift := uint(PageShift) + uint(level)*cfg.vpnBits
		vpnMask := uint64(1)<<cfg.vpnBits - 1
		vpn := (va >> shift) & vpnMask

		entryAddr := tableAddr + vpn*uint64(cfg.entryBytes)
		var pte PTE
		if cfg.entryBytes == 4 {
			pte = PTE(m.mem.ReadUint(entryAddr, 4))
		} else {
			pte = PTE(m.mem.ReadUint(entryAddr, 8))
		}

		if !pte.IsValid() {
			return 0, 0, 0, 0, pageFault(intent, va)
		}

		if pte.IsLeaf() {
			if level > 0 {
				mask := uint64(1)<<(uint(level)*cfg.vpnBits) - 1
				if pte.PPN()&mask != 0 {
					return 0, 0, 0, 0, pageFault(intent, va) // misaligned superpage
				}
				pageSize = uint64(1) << shift
			}
			if err := checkPermissions(pte, intent, priv, mstatus, va); err != nil {
				return 0, 0, 0, 0, err
			}
			if !pte.A() || (intent == Write && !pte.D()) {
				pte.setA()
				if intent == Write {
					pte.setD()
				}
				if cfg.entryBytes == 4 {
					m.mem.WriteUint(entryAddr, 4, uint64(uint32(pte)))
				} else {
					m.mem.WriteUint(entryAddr, 8, uint64(pte))
				}
			}
			finalPPN := pte.PPN()
			if level > 0 {
				mask := uint64(1)<<(uint(level)*cfg.vpnBits) - 1
				finalPPN = (finalPPN &^ mask) | ((va >> PageShift) & mask)
			}
			offset := va & (pageSize - 1)
			return (finalPPN << PageShift) | offset, finalPPN, pte, pageSize, nil
		}

		tableAddr = pte.PPN() << PageShift
	}
	return 0, 0, 0, 0, pageFault(intent, va)
}

func checkPermissions(pte PTE, intent Intent, priv riscv.Priv, mstatus, va uint64) error {
	if priv == riscv.User {
		if !pte.U() {
			return pageFault(intent, va)
		}
	} else if pte.U() && mstatus&riscv.StatusSUM == 0 {
		return pageFault(intent, va)
	}

	switch intent {
	case Read:
		if !pte.R() {
			if mstatus&riscv.StatusMXR != 0 && pte.X() {
				return nil
			}
			return pageFault(intent, va)
		}
	case Write:
		if !pte.W() {
			return pageFault(intent, va)
		}
	case Execute:
		if !pte.X() {
			return pageFault(intent, va)
		}
	}
	return nil
}

func pageFault(intent Intent, va uint64) error {
	switch intent {
	case Write:
		return &Fault{Cause: riscv.CauseStorePageFault, Addr: va}
	case Execute:
		return &Fault{Cause: riscv.CauseInstrPageFault, Addr: va}
	default:
		return &Fault{Cause: riscv.CauseLoadPageFault, Addr: va}
	}
}

// Fault is a translation failure carrying the trap cause and faulting
// address the hart needs to populate xcause/xtval.
type Fault struct {
	Cause uint64
	Addr  uint64
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at %#x", riscv.CauseName(f.Cause), f.Addr)
}

// SfenceVMA invalidates translations per sfence.vma's addressing form: both
// operands zero flushes everything; rs1 alone flushes one VA; rs2 alone
// flushes one ASID's non-global entries; both flushes that VA's entry
// whichever ASID it belongs to, the same as rs1 alone.
func (m *MMU) SfenceVMA(va uint64, asid uint32, hasVA, hasASID bool) {
	switch {
	case !hasVA && !hasASID:
		m.tlb.FlushAll()
	case hasVA && !hasASID:
		m.tlb.FlushVA(va)
	case !hasVA && hasASID:
		m.tlb.FlushASID(asid)
	default:
		m.tlb.FlushVA(va)
	}
}
