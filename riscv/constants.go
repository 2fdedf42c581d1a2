// Package riscv holds the numeric constants shared by the decoder, the
// MMU, and the hart: opcode/funct groupings, CSR addresses, privilege
// levels, and trap cause codes.
package riscv

// Base opcodes (instr[6:0]).
const (
	OpLoad       = 0x03
	OpMiscMem    = 0x0F
	OpImm        = 0x13
	OpAuipc      = 0x17
	OpImm32      = 0x1B
	OpStore      = 0x23
	OpAmo        = 0x2F
	OpOp         = 0x33
	OpLui        = 0x37
	OpOp32       = 0x3B
	OpLoadFP     = 0x07
	OpStoreFP    = 0x27
	OpMAdd       = 0x43
	OpMSub       = 0x47
	OpNMSub      = 0x4B
	OpNMAdd      = 0x4F
	OpOpFP       = 0x53
	OpBranch     = 0x63
	OpJalr       = 0x67
	OpJal        = 0x6F
	OpSystem     = 0x73
)

// Privilege levels, ordered Machine > Supervisor > User.
type Priv uint8

const (
	User       Priv = 0
	Supervisor Priv = 1
	Machine    Priv = 3
)

func (p Priv) String() string {
	switch p {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	default:
		return "?"
	}
}

// CSR addresses actually implemented by the CSR file (hart/csr.go).
const (
	CsrFFlags  = 0x001
	CsrFrm     = 0x002
	CsrFcsr    = 0x003

	CsrCycle   = 0xC00
	CsrTime    = 0xC01
	CsrInstret = 0xC02

	CsrSstatus    = 0x100
	CsrSie        = 0x104
	CsrStvec      = 0x105
	CsrScounteren = 0x106
	CsrSscratch   = 0x140
	CsrSepc       = 0x141
	CsrScause     = 0x142
	CsrStval      = 0x143
	CsrSip        = 0x144
	CsrSatp       = 0x180

	CsrMstatus    = 0x300
	CsrMisa       = 0x301
	CsrMedeleg    = 0x302
	CsrMideleg    = 0x303
	CsrMie        = 0x304
	CsrMtvec      = 0x305
	CsrMcounteren = 0x306
	CsrMscratch   = 0x340
	CsrMepc       = 0x341
	CsrMcause     = 0x342
	CsrMtval      = 0x343
	CsrMip        = 0x344

	CsrMvendorid = 0xF11
	CsrMarchid   = 0xF12
	CsrMimpid    = 0xF13
	CsrMhartid   = 0xF14
)

// mstatus / sstatus bit positions.
const (
	StatusSIE  = 1 << 1
	StatusMIE  = 1 << 3
	StatusSPIE = 1 << 5
	StatusMPIE = 1 << 7
	StatusSPP  = 1 << 8
	StatusMPPShift = 11
	StatusMPPMask  = 0x3 << StatusMPPShift
	StatusSUM  = 1 << 18
	StatusMXR  = 1 << 19
	StatusMPRV = 1 << 17
)

// mie / mip bit positions. sie/sip are filtered views exposing only the
// supervisor-level subset (S*IP/S*IE) of these same bits.
const (
	MIPSSIP = 1 << 1
	MIPMSIP = 1 << 3
	MIPSTIP = 1 << 5
	MIPMTIP = 1 << 7
	MIPSEIP = 1 << 9
	MIPMEIP = 1 << 11
)

// satp MODE values (Sv32: 32-bit layout; Sv39: 64-bit layout). The MODE
// field's position differs by XLEN (bit 31 vs. bits 63:60) and is extracted
// by the mmu package's modeOf.
const (
	SatpModeBare = 0
	SatpModeSv32 = 1
	SatpModeSv39 = 8
	SatpModeSv48 = 9
)

// Trap cause codes, matching the RISC-V privileged ISA's mcause encoding.
// The interrupt bit (MSB) is not modelled: this emulator raises only
// synchronous exceptions (spec.md §1 excludes external interrupt delivery).
const (
	CauseInstrAddrMisaligned = 0
	CauseInstrAccessFault    = 1
	CauseIllegalInstr        = 2
	CauseBreakpoint          = 3
	CauseLoadAddrMisaligned  = 4
	CauseLoadAccessFault     = 5
	CauseStoreAddrMisaligned = 6
	CauseStoreAccessFault    = 7
	CauseEcallFromU          = 8
	CauseEcallFromS          = 9
	CauseEcallFromM          = 11
	CauseInstrPageFault      = 12
	CauseLoadPageFault       = 13
	CauseStorePageFault      = 15
)

// CauseName renders a cause code for diagnostics and trace logging.
func CauseName(cause uint64) string {
	switch cause {
	case CauseInstrAddrMisaligned:
		return "instruction-address-misaligned"
	case CauseInstrAccessFault:
		return "instruction-access-fault"
	case CauseIllegalInstr:
		return "illegal-instruction"
	case CauseBreakpoint:
		return "breakpoint"
	case CauseLoadAddrMisaligned:
		return "load-address-misaligned"
	case CauseLoadAccessFault:
		return "load-access-fault"
	case CauseStoreAddrMisaligned:
		return "store-address-misaligned"
	case CauseStoreAccessFault:
		return "store-access-fault"
	case CauseEcallFromU:
		return "ecall-from-u"
	case CauseEcallFromS:
		return "ecall-from-s"
	case CauseEcallFromM:
		return "ecall-from-m"
	case CauseInstrPageFault:
		return "instruction-page-fault"
	case CauseLoadPageFault:
		return "load-page-fault"
	case CauseStorePageFault:
		return "store-page-fault"
	default:
		return "unknown-cause"
	}
}

// ABI register names, x0..x31, following the standard calling convention.
// Mirrors original_source/RISCV_cpu.h's Registers enum.
var ABIName = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Register index aliases used by the decoder and the hart.
const (
	RegZero = 0
	RegRA   = 1
	RegSP   = 2
	RegGP   = 3
	RegA0   = 10
	RegA1   = 11
	RegA7   = 17
)
