package hart

import (
	"github.com/holiman/uint256"

	"github.com/rvcore/rvemu/decode"
	"github.com/rvcore/rvemu/mmu"
	"github.com/rvcore/rvemu/riscv"
)

// execute performs the semantic effect of one decoded instruction, mutating
// registers, memory, and PC. It is a single switch over Kind: a Kind with
// no matching case here falls to the default arm, which raises an
// illegal-instruction trap at run time (neither the compiler nor go vet
// reports the gap). Grounded case-by-case on _teacher_ref/fast/vm.go's opcode
// switch, generalised from asterisc's U64-wrapper-function style to plain
// Go arithmetic since there is no Yul transliteration target here.
func (h *Hart) execute(ins decode.Instruction) {
	pc := h.PC
	next := pc + uint64(ins.Len)

	switch ins.Kind {
	case decode.Illegal:
		h.trap(riscv.CauseIllegalInstr, 0)

	// Register-immediate
	case decode.AddI:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)+uint64(ins.Imm)))
	case decode.SltI:
		h.setReg(ins.Rd, boolToU64(h.signExtendXLEN(h.reg(ins.Rs1)) < ins.Imm))
	case decode.SltIU:
		h.setReg(ins.Rd, boolToU64(h.reg(ins.Rs1) < uint64(ins.Imm)))
	case decode.XorI:
		h.setReg(ins.Rd, h.reg(ins.Rs1)^uint64(ins.Imm))
	case decode.OrI:
		h.setReg(ins.Rd, h.reg(ins.Rs1)|uint64(ins.Imm))
	case decode.AndI:
		h.setReg(ins.Rd, h.reg(ins.Rs1)&uint64(ins.Imm))
	case decode.SllI:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)<<h.shiftMask(uint64(ins.Imm))))
	case decode.SrlI:
		h.setReg(ins.Rd, h.maskXLEN(h.logicalShiftRight(h.reg(ins.Rs1), h.shiftMask(uint64(ins.Imm)))))
	case decode.SraI:
		h.setReg(ins.Rd, h.maskXLEN(uint64(h.arithShiftRight(h.reg(ins.Rs1), h.shiftMask(uint64(ins.Imm))))))
	case decode.AddIW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))+uint32(ins.Imm)))
	case decode.SllIW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))<<(uint(ins.Imm)&0x1F)))
	case decode.SrlIW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))>>(uint(ins.Imm)&0x1F)))
	case decode.SraIW:
		h.setReg(ins.Rd, signExtend32(uint32(int32(uint32(h.reg(ins.Rs1)))>>(uint(ins.Imm)&0x1F))))

	// Register-register
	case decode.Add:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)+h.reg(ins.Rs2)))
	case decode.Sub:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)-h.reg(ins.Rs2)))
	case decode.Sll:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)<<h.shiftMask(h.reg(ins.Rs2))))
	case decode.Slt:
		h.setReg(ins.Rd, boolToU64(h.signExtendXLEN(h.reg(ins.Rs1)) < h.signExtendXLEN(h.reg(ins.Rs2))))
	case decode.SltU:
		h.setReg(ins.Rd, boolToU64(h.reg(ins.Rs1) < h.reg(ins.Rs2)))
	case decode.Xor:
		h.setReg(ins.Rd, h.reg(ins.Rs1)^h.reg(ins.Rs2))
	case decode.Srl:
		h.setReg(ins.Rd, h.maskXLEN(h.logicalShiftRight(h.reg(ins.Rs1), h.shiftMask(h.reg(ins.Rs2)))))
	case decode.Sra:
		h.setReg(ins.Rd, h.maskXLEN(uint64(h.arithShiftRight(h.reg(ins.Rs1), h.shiftMask(h.reg(ins.Rs2))))))
	case decode.Or:
		h.setReg(ins.Rd, h.reg(ins.Rs1)|h.reg(ins.Rs2))
	case decode.And:
		h.setReg(ins.Rd, h.reg(ins.Rs1)&h.reg(ins.Rs2))
	case decode.AddW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))+uint32(h.reg(ins.Rs2))))
	case decode.SubW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))-uint32(h.reg(ins.Rs2))))
	case decode.SllW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))<<(uint(h.reg(ins.Rs2))&0x1F)))
	case decode.SrlW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))>>(uint(h.reg(ins.Rs2))&0x1F)))
	case decode.SraW:
		h.setReg(ins.Rd, signExtend32(uint32(int32(uint32(h.reg(ins.Rs1)))>>(uint(h.reg(ins.Rs2))&0x1F))))

	// M extension
	case decode.Mul:
		h.setReg(ins.Rd, h.maskXLEN(h.reg(ins.Rs1)*h.reg(ins.Rs2)))
	case decode.MulH:
		if h.XLEN == 32 {
			h.setReg(ins.Rd, uint64(h.signExtendXLEN(h.reg(ins.Rs1))*h.signExtendXLEN(h.reg(ins.Rs2)))>>32)
		} else {
			h.setReg(ins.Rd, mulh(h.signExtendXLEN(h.reg(ins.Rs1)), h.signExtendXLEN(h.reg(ins.Rs2))))
		}
	case decode.MulHSU:
		if h.XLEN == 32 {
			h.setReg(ins.Rd, uint64(h.signExtendXLEN(h.reg(ins.Rs1))*int64(h.reg(ins.Rs2)))>>32)
		} else {
			h.setReg(ins.Rd, mulhsu(h.signExtendXLEN(h.reg(ins.Rs1)), h.reg(ins.Rs2)))
		}
	case decode.MulHU:
		if h.XLEN == 32 {
			h.setReg(ins.Rd, (h.reg(ins.Rs1)*h.reg(ins.Rs2))>>32)
		} else {
			h.setReg(ins.Rd, mulhu(h.reg(ins.Rs1), h.reg(ins.Rs2)))
		}
	case decode.Div:
		a, b := h.signExtendXLEN(h.reg(ins.Rs1)), h.signExtendXLEN(h.reg(ins.Rs2))
		if b == 0 {
			h.setReg(ins.Rd, ^uint64(0))
		} else {
			h.setReg(ins.Rd, h.maskXLEN(uint64(a/b)))
		}
	case decode.DivU:
		a, b := h.reg(ins.Rs1), h.reg(ins.Rs2)
		if b == 0 {
			h.setReg(ins.Rd, ^uint64(0))
		} else {
			h.setReg(ins.Rd, h.maskXLEN(a/b))
		}
	case decode.Rem:
		a, b := h.signExtendXLEN(h.reg(ins.Rs1)), h.signExtendXLEN(h.reg(ins.Rs2))
		if b == 0 {
			h.setReg(ins.Rd, h.reg(ins.Rs1))
		} else {
			h.setReg(ins.Rd, h.maskXLEN(uint64(a%b)))
		}
	case decode.RemU:
		a, b := h.reg(ins.Rs1), h.reg(ins.Rs2)
		if b == 0 {
			h.setReg(ins.Rd, h.reg(ins.Rs1))
		} else {
			h.setReg(ins.Rd, h.maskXLEN(a%b))
		}
	case decode.MulW:
		h.setReg(ins.Rd, signExtend32(uint32(h.reg(ins.Rs1))*uint32(h.reg(ins.Rs2))))
	case decode.DivW:
		a, b := int32(uint32(h.reg(ins.Rs1))), int32(uint32(h.reg(ins.Rs2)))
		if b == 0 {
			h.setReg(ins.Rd, ^uint64(0))
		} else {
			h.setReg(ins.Rd, signExtend32(uint32(a/b)))
		}
	case decode.DivUW:
		a, b := uint32(h.reg(ins.Rs1)), uint32(h.reg(ins.Rs2))
		if b == 0 {
			h.setReg(ins.Rd, ^uint64(0))
		} else {
			h.setReg(ins.Rd, signExtend32(a/b))
		}
	case decode.RemW:
		a, b := int32(uint32(h.reg(ins.Rs1))), int32(uint32(h.reg(ins.Rs2)))
		if b == 0 {
			h.setReg(ins.Rd, signExtend32(uint32(a)))
		} else {
			h.setReg(ins.Rd, signExtend32(uint32(a%b)))
		}
	case decode.RemUW:
		a, b := uint32(h.reg(ins.Rs1)), uint32(h.reg(ins.Rs2))
		if b == 0 {
			h.setReg(ins.Rd, signExtend32(a))
		} else {
			h.setReg(ins.Rd, signExtend32(a%b))
		}

	// Upper immediate / control transfer
	case decode.Lui:
		h.setReg(ins.Rd, h.maskXLEN(uint64(ins.Imm)))
	case decode.Auipc:
		h.setReg(ins.Rd, h.maskXLEN(pc+uint64(ins.Imm)))
	case decode.Jal:
		h.setReg(ins.Rd, next)
		h.PC = pc + uint64(ins.Imm)
		return
	case decode.Jalr:
		target := (h.reg(ins.Rs1) + uint64(ins.Imm)) &^ 1
		h.setReg(ins.Rd, next)
		h.PC = target
		return
	case decode.Beq:
		h.branch(h.reg(ins.Rs1) == h.reg(ins.Rs2), pc, next, ins.Imm)
		return
	case decode.Bne:
		h.branch(h.reg(ins.Rs1) != h.reg(ins.Rs2), pc, next, ins.Imm)
		return
	case decode.Blt:
		h.branch(h.signExtendXLEN(h.reg(ins.Rs1)) < h.signExtendXLEN(h.reg(ins.Rs2)), pc, next, ins.Imm)
		return
	case decode.Bge:
		h.branch(h.signExtendXLEN(h.reg(ins.Rs1)) >= h.signExtendXLEN(h.reg(ins.Rs2)), pc, next, ins.Imm)
		return
	case decode.BltU:
		h.branch(h.reg(ins.Rs1) < h.reg(ins.Rs2), pc, next, ins.Imm)
		return
	case decode.BgeU:
		h.branch(h.reg(ins.Rs1) >= h.reg(ins.Rs2), pc, next, ins.Imm)
		return

	// Loads/stores
	case decode.Lb:
		h.setReg(ins.Rd, uint64(int64(int8(h.loadAligned(ins, 1)))))
	case decode.Lh:
		h.setReg(ins.Rd, uint64(int64(int16(h.loadAligned(ins, 2)))))
	case decode.Lw:
		h.setReg(ins.Rd, uint64(int64(int32(h.loadAligned(ins, 4)))))
	case decode.Ld:
		h.setReg(ins.Rd, h.loadAligned(ins, 8))
	case decode.LbU:
		h.setReg(ins.Rd, h.loadAligned(ins, 1))
	case decode.LhU:
		h.setReg(ins.Rd, h.loadAligned(ins, 2))
	case decode.LwU:
		h.setReg(ins.Rd, h.loadAligned(ins, 4))
	case decode.Sb:
		h.storeAligned(ins, 1)
	case decode.Sh:
		h.storeAligned(ins, 2)
	case decode.Sw:
		h.storeAligned(ins, 4)
	case decode.Sd:
		h.storeAligned(ins, 8)

	// Memory ordering: no-ops (single hart, no pipeline to fence).
	case decode.Fence, decode.FenceI:

	// Environment / privileged
	case decode.Ecall:
		h.ecall()
	case decode.Ebreak:
		h.trap(riscv.CauseBreakpoint, pc)
	case decode.Mret:
		h.mret()
		return
	case decode.Sret:
		h.sret()
		return
	case decode.Wfi:
		// No interrupt source is modelled; treat as a no-op that resumes
		// immediately rather than actually halting the hart.
	case decode.SfenceVMA:
		hasVA := ins.Rs1 != 0
		hasASID := ins.Rs2 != 0
		h.mmu.SfenceVMA(h.reg(ins.Rs1), uint32(h.reg(ins.Rs2)), hasVA, hasASID)

	// CSR
	case decode.CsrRW, decode.CsrRS, decode.CsrRC, decode.CsrRWI, decode.CsrRSI, decode.CsrRCI:
		h.execCSR(ins)

	// Atomics
	case decode.LrW:
		h.setReg(ins.Rd, h.loadReserved(h.reg(ins.Rs1), 4))
	case decode.LrD:
		h.setReg(ins.Rd, h.loadReserved(h.reg(ins.Rs1), 8))
	case decode.ScW:
		h.setReg(ins.Rd, h.storeConditional(h.reg(ins.Rs1), 4, h.reg(ins.Rs2)))
	case decode.ScD:
		h.setReg(ins.Rd, h.storeConditional(h.reg(ins.Rs1), 8, h.reg(ins.Rs2)))
	case decode.AmoSwapW, decode.AmoAddW, decode.AmoXorW, decode.AmoOrW, decode.AmoAndW,
		decode.AmoMinW, decode.AmoMaxW, decode.AmoMinUW, decode.AmoMaxUW:
		h.setReg(ins.Rd, h.execAmo(ins, 4))
	case decode.AmoSwapD, decode.AmoAddD, decode.AmoXorD, decode.AmoOrD, decode.AmoAndD,
		decode.AmoMinD, decode.AmoMaxD, decode.AmoMinUD, decode.AmoMaxUD:
		h.setReg(ins.Rd, h.execAmo(ins, 8))

	// Floating point: recognised, not executed (spec.md §1 excludes F/D).
	case decode.FLoad, decode.FStore, decode.FOther:

	default:
		h.trap(riscv.CauseIllegalInstr, 0)
	}

	h.advanceTo(next)
}

func (h *Hart) advanceTo(pc uint64) { h.PC = pc }

func (h *Hart) branch(taken bool, pc, next uint64, imm int64) {
	if taken {
		h.advanceTo(pc + uint64(imm))
		return
	}
	h.advanceTo(next)
}

func (h *Hart) shiftMask(shamt uint64) uint64 {
	if h.XLEN == 32 {
		return shamt & 0x1F
	}
	return shamt & 0x3F
}

func (h *Hart) logicalShiftRight(v, shamt uint64) uint64 {
	if h.XLEN == 32 {
		return uint64(uint32(v) >> shamt)
	}
	return v >> shamt
}

func (h *Hart) arithShiftRight(v, shamt uint64) int64 {
	if h.XLEN == 32 {
		return int64(int32(uint32(v)) >> shamt)
	}
	return int64(v) >> shamt
}

// signExtendXLEN reinterprets a register value (stored zero-extended into
// the 64-bit container by setReg when XLEN==32) as a signed XLEN-wide
// integer widened to int64. Every signed comparison, division, remainder,
// and high-multiply must go through this instead of a bare int64(v) cast,
// or a negative 32-bit value reads back as a large positive int64 on RV32.
func (h *Hart) signExtendXLEN(v uint64) int64 {
	if h.XLEN == 32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}

func (h *Hart) loadAligned(ins decode.Instruction, size int) uint64 {
	addr := h.reg(ins.Rs1) + uint64(ins.Imm)
	h.checkAlignment(addr, size)
	pa, err := h.translate(addr, mmu.Read)
	if err != nil {
		panic(err)
	}
	return h.mem.ReadUint(pa, size)
}

func (h *Hart) storeAligned(ins decode.Instruction, size int) {
	addr := h.reg(ins.Rs1) + uint64(ins.Imm)
	h.checkAlignment(addr, size)
	pa, err := h.translate(addr, mmu.Write)
	if err != nil {
		panic(err)
	}
	h.mem.WriteUint(pa, size, h.reg(ins.Rs2))
	// An ordinary store, not just sc's own store, invalidates any pending
	// load-reservation: spec.md's Data Model requires the reservation to be
	// cleared by any store to any address, not only a store to the same one.
	h.reservationValid = false
}

func (h *Hart) checkAlignment(addr uint64, size int) {
	if h.allowMisaligned {
		return
	}
	if addr%uint64(size) != 0 {
		h.trap(riscv.CauseLoadAddrMisaligned, addr)
	}
}

func (h *Hart) execCSR(ins decode.Instruction) {
	if csrPrivilege(ins.Csr) > h.Priv {
		h.trap(riscv.CauseIllegalInstr, 0)
	}

	old, ok := h.readCSR(ins.Csr)
	if !ok {
		h.trap(riscv.CauseIllegalInstr, 0)
	}

	var operand uint64
	switch ins.Kind {
	case decode.CsrRWI, decode.CsrRSI, decode.CsrRCI:
		operand = uint64(ins.Imm)
	default:
		operand = h.reg(ins.Rs1)
	}

	// CSRRS/CSRRC (and their immediate forms) skip the write entirely when
	// the source operand is x0 (or, for the I-forms, a zero uimm) — decode
	// puts that same 5-bit field in ins.Rs1 for both forms, so one check
	// covers both.
	writesCSR := true
	var newVal uint64
	switch ins.Kind {
	case decode.CsrRW, decode.CsrRWI:
		newVal = operand
	case decode.CsrRS, decode.CsrRSI:
		newVal = old | operand
		writesCSR = ins.Rs1 != 0
	case decode.CsrRC, decode.CsrRCI:
		newVal = old &^ operand
		writesCSR = ins.Rs1 != 0
	}
	if writesCSR {
		h.writeCSR(ins.Csr, newVal)
	}
	h.setReg(ins.Rd, old)
}

func (h *Hart) execAmo(ins decode.Instruction, size int) uint64 {
	addr := h.reg(ins.Rs1)
	value := h.reg(ins.Rs2)
	if size == 4 {
		value = uint64(uint32(value))
	}

	rawApply := func(oldRaw, value uint64) uint64 {
		switch ins.Kind {
		case decode.AmoSwapW, decode.AmoSwapD:
			return value
		case decode.AmoAddW, decode.AmoAddD:
			return maskToSize(oldRaw+value, size)
		case decode.AmoXorW, decode.AmoXorD:
			return oldRaw ^ value
		case decode.AmoOrW, decode.AmoOrD:
			return oldRaw | value
		case decode.AmoAndW, decode.AmoAndD:
			return oldRaw & value
		case decode.AmoMinW, decode.AmoMinD:
			if int64FromU64(signExtendSize(value, size)) < int64FromU64(signExtendSize(oldRaw, size)) {
				return value
			}
			return oldRaw
		case decode.AmoMaxW, decode.AmoMaxD:
			if int64FromU64(signExtendSize(value, size)) > int64FromU64(signExtendSize(oldRaw, size)) {
				return value
			}
			return oldRaw
		case decode.AmoMinUW, decode.AmoMinUD:
			if value < oldRaw {
				return value
			}
			return oldRaw
		default: // AmoMaxUW, AmoMaxUD
			if value > oldRaw {
				return value
			}
			return oldRaw
		}
	}
	return h.amoRMW(addr, size, value, rawApply)
}

func maskToSize(v uint64, size int) uint64 {
	if size == 4 {
		return uint64(uint32(v))
	}
	return v
}

func int64FromU64(v uint64) int64 { return int64(v) }

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func signExtend32(v uint32) uint64 { return uint64(int64(int32(v))) }

// mulh/mulhsu/mulhu compute the upper 64 bits of a 128-bit product using
// uint256 as the wide-arithmetic intermediate, exactly the technique
// _teacher_ref/fast/yul64.go uses (signExtend64To256 + shr(64, mul(...))),
// minus the Yul-transliteration wrapper functions this emulator has no use
// for (see DESIGN.md).
func mulh(a, b int64) uint64 {
	x, y := new(uint256.Int), new(uint256.Int)
	x.SetAllOne()
	if a >= 0 {
		x.SetUint64(uint64(a))
	} else {
		x.SetUint64(uint64(a))
		signExtendUint256(x)
	}
	if b >= 0 {
		y.SetUint64(uint64(b))
	} else {
		y.SetUint64(uint64(b))
		signExtendUint256(y)
	}
	prod := new(uint256.Int).Mul(x, y)
	prod.Rsh(prod, 64)
	return prod.Uint64()
}

func mulhsu(a int64, b uint64) uint64 {
	x, y := new(uint256.Int), new(uint256.Int)
	x.SetUint64(uint64(a))
	if a < 0 {
		signExtendUint256(x)
	}
	y.SetUint64(b)
	prod := new(uint256.Int).Mul(x, y)
	prod.Rsh(prod, 64)
	return prod.Uint64()
}

func mulhu(a, b uint64) uint64 {
	x, y := new(uint256.Int).SetUint64(a), new(uint256.Int).SetUint64(b)
	prod := new(uint256.Int).Mul(x, y)
	prod.Rsh(prod, 64)
	return prod.Uint64()
}

// signExtendUint256 sign-extends a value already holding the low 64 bits
// of a negative int64 (stored as its uint64 bit pattern) up through bit
// 255, so a subsequent 256-bit multiply sees the correct two's-complement
// magnitude.
func signExtendUint256(x *uint256.Int) {
	ones := new(uint256.Int).Not(uint256.NewInt(0))
	ones.Lsh(ones, 64)
	x.Or(x, ones)
}
