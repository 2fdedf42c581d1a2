package hart

import "github.com/rvcore/rvemu/riscv"

// csrDef fixes one CSR's read/write mask: bits outside readMask always
// read as zero, bits outside writeMask are preserved across writes. A CSR
// address with no entry in csrDefs is unimplemented — the lookup misses
// the table rather than falling through a missing switch case, which is
// the point of a table-driven CSR file (Design Notes §9).
type csrDef struct {
	readMask  uint64
	writeMask uint64
}

var csrDefs = map[uint16]csrDef{
	riscv.CsrFFlags: {readMask: 0x1F, writeMask: 0x1F},
	riscv.CsrFrm:    {readMask: 0x7, writeMask: 0x7},
	riscv.CsrFcsr:   {readMask: 0xFF, writeMask: 0xFF},

	riscv.CsrCycle:   {readMask: ^uint64(0)},
	riscv.CsrTime:    {readMask: ^uint64(0)},
	riscv.CsrInstret: {readMask: ^uint64(0)},

	riscv.CsrSstatus:    {readMask: sstatusMask, writeMask: sstatusMask},
	riscv.CsrSie:        {readMask: sieSipMask, writeMask: sieSipMask},
	riscv.CsrStvec:      {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrScounteren: {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrSscratch:   {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrSepc:       {readMask: ^uint64(1), writeMask: ^uint64(1)},
	riscv.CsrScause:     {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrStval:      {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrSip:        {readMask: sieSipMask, writeMask: sieSipMask},
	riscv.CsrSatp:       {readMask: ^uint64(0), writeMask: ^uint64(0)},

	riscv.CsrMstatus:    {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMisa:       {readMask: ^uint64(0)}, // read-only in this emulator: no supervisor of extension toggling
	riscv.CsrMedeleg:    {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMideleg:    {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMie:        {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMtvec:      {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMcounteren: {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMscratch:   {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMepc:       {readMask: ^uint64(1), writeMask: ^uint64(1)},
	riscv.CsrMcause:     {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMtval:      {readMask: ^uint64(0), writeMask: ^uint64(0)},
	riscv.CsrMip:        {readMask: ^uint64(0), writeMask: ^uint64(0)},

	riscv.CsrMvendorid: {readMask: ^uint64(0)},
	riscv.CsrMarchid:   {readMask: ^uint64(0)},
	riscv.CsrMimpid:    {readMask: ^uint64(0)},
	riscv.CsrMhartid:   {readMask: ^uint64(0)},
}

// sstatus is a restricted view of mstatus: only the bits a supervisor may
// see or touch directly (SIE/SPIE/SPP/SUM/MXR).
const sstatusMask = riscv.StatusSIE | riscv.StatusSPIE | riscv.StatusSPP |
	riscv.StatusSUM | riscv.StatusMXR

// sie/sip are restricted views of mie/mip: only the supervisor-level
// interrupt bits (SSIP/STIP/SEIP), never the machine-level ones.
const sieSipMask = riscv.MIPSSIP | riscv.MIPSTIP | riscv.MIPSEIP

type csrFile struct {
	values map[uint16]uint64
}

func newCSRFile() csrFile {
	return csrFile{values: make(map[uint16]uint64)}
}

// sstatus/sie/sip and mstatus/mie/mip alias the same backing bits: the s*
// CSRs are simply masked views. All csr.read/write below route s* reads/
// writes through the matching m* slot so the two never drift apart.
func (f csrFile) storageAddr(addr uint16) uint16 {
	switch addr {
	case riscv.CsrSstatus:
		return riscv.CsrMstatus
	case riscv.CsrSie:
		return riscv.CsrMie
	case riscv.CsrSip:
		return riscv.CsrMip
	default:
		return addr
	}
}

func (f csrFile) exists(addr uint16) bool {
	_, ok := csrDefs[addr]
	return ok
}

func (f csrFile) read(addr uint16) uint64 {
	def, ok := csrDefs[addr]
	if !ok {
		return 0
	}
	return f.values[f.storageAddr(addr)] & def.readMask
}

func (f csrFile) rawWrite(addr uint16, v uint64) {
	def, ok := csrDefs[addr]
	if !ok {
		return
	}
	backing := f.storageAddr(addr)
	f.values[backing] = (f.values[backing] &^ def.writeMask) | (v & def.writeMask)
}

// writeCSR applies a write and runs the one side effect this emulator
// models: writing satp invalidates the TLB, since a new page table root
// makes every cached translation meaningless.
func (h *Hart) writeCSR(addr uint16, v uint64) {
	h.csr.rawWrite(addr, v)
	if addr == riscv.CsrSatp {
		h.mmu.SfenceVMA(0, 0, false, false)
	}
}

func (h *Hart) readCSR(addr uint16) (uint64, bool) {
	if !h.csr.exists(addr) {
		return 0, false
	}
	return h.csr.read(addr), true
}

// csrPrivilege extracts the minimum privilege level required to access a
// CSR from bits [9:8] of its address, per the privileged spec's CSR
// address encoding (the same two bits the sstatus/mstatus naming
// convention mirrors: 00 user, 01 supervisor, 11 machine).
func csrPrivilege(addr uint16) riscv.Priv {
	return riscv.Priv((addr >> 8) & 0x3)
}
