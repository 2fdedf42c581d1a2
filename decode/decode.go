package decode

import (
	"fmt"

	"github.com/rvcore/rvemu/riscv"
)

func opcode(w uint32) uint32 { return w & 0x7F }
func rd(w uint32) uint32     { return (w >> 7) & 0x1F }
func funct3(w uint32) uint32 { return (w >> 12) & 0x7 }
func rs1(w uint32) uint32    { return (w >> 15) & 0x1F }
func rs2(w uint32) uint32    { return (w >> 20) & 0x1F }
func funct7(w uint32) uint32 { return w >> 25 }

func signExtend(v uint64, bit uint) int64 {
	shift := 63 - bit
	return int64(v<<shift) >> shift
}

func immI(w uint32) int64 { return signExtend(uint64(w)>>20, 11) }

func immS(w uint32) int64 {
	v := (funct7(w) << 5) | rd(w)
	return signExtend(uint64(v), 11)
}

func immB(w uint32) int64 {
	v := (((w >> 8) & 0xF) << 1) |
		(((w >> 25) & 0x3F) << 5) |
		(((w >> 7) & 0x1) << 11) |
		((w >> 31) << 12)
	return signExtend(uint64(v), 12)
}

func immU(w uint32) int64 {
	return signExtend(uint64(w)>>12<<12, 31)
}

// Decode parses a 32-bit standard-encoding instruction word (low two bits
// must be 11 — the caller, hart.fetch, is responsible for routing to this
// function vs. DecodeCompressed based on that check).
func Decode(w uint32) (Instruction, error) {
	op := opcode(w)
	ins := Instruction{Rd: rd(w), Rs1: rs1(w), Rs2: rs2(w), Len: 4}
	f3 := funct3(w)
	f7 := funct7(w)

	switch op {
	case riscv.OpLoad:
		ins.Imm = immI(w)
		switch f3 {
		case 0:
			ins.Kind = Lb
		case 1:
			ins.Kind = Lh
		case 2:
			ins.Kind = Lw
		case 3:
			ins.Kind = Ld
		case 4:
			ins.Kind = LbU
		case 5:
			ins.Kind = LhU
		case 6:
			ins.Kind = LwU
		default:
			return Instruction{}, illegal(w)
		}
	case riscv.OpStore:
		ins.Imm = immS(w)
		switch f3 {
		case 0:
			ins.Kind = Sb
		case 1:
			ins.Kind = Sh
		case 2:
			ins.Kind = Sw
		case 3:
			ins.Kind = Sd
		default:
			return Instruction{}, illegal(w)
		}
	case riscv.OpBranch:
		ins.Imm = immB(w)
		switch f3 {
		case 0:
			ins.Kind = Beq
		case 1:
			ins.Kind = Bne
		case 4:
			ins.Kind = Blt
		case 5:
			ins.Kind = Bge
		case 6:
			ins.Kind = BltU
		case 7:
			ins.Kind = BgeU
		default:
			return Instruction{}, illegal(w)
		}
	case riscv.OpImm:
		ins.Imm = immI(w)
		switch f3 {
		case 0:
			ins.Kind = AddI
		case 1:
			if w>>26 != 0 { // funct6 must be all-zero; shamt is the 6-bit field below it
				return Instruction{}, illegal(w)
			}
			ins.Kind = SllI
			ins.Imm = int64((w >> 20) & 0x3F)
		case 2:
			ins.Kind = SltI
		case 3:
			ins.Kind = SltIU
		case 4:
			ins.Kind = XorI
		case 5:
			switch w >> 26 {
			case 0x00:
				ins.Kind = SrlI
			case 0x10:
				ins.Kind = SraI
			default:
				return Instruction{}, illegal(w)
			}
			ins.Imm = int64((w >> 20) & 0x3F)
		case 6:
			ins.Kind = OrI
		case 7:
			ins.Kind = AndI
		}
	case riscv.OpImm32:
		ins.Imm = immI(w)
		switch f3 {
		case 0:
			ins.Kind = AddIW
		case 1:
			ins.Kind = SllIW
			ins.Imm = int64(rs2(w))
		case 5:
			switch f7 {
			case 0x00:
				ins.Kind = SrlIW
			case 0x20:
				ins.Kind = SraIW
			default:
				return Instruction{}, illegal(w)
			}
			ins.Imm = int64(rs2(w))
		default:
			return Instruction{}, illegal(w)
		}
	case riscv.OpOp:
		if f7 == 1 {
			switch f3 {
			case 0:
				ins.Kind = Mul
			case 1:
				ins.Kind = MulH
			case 2:
				ins.Kind = MulHSU
			case 3:
				ins.Kind = MulHU
			case 4:
				ins.Kind = Div
			case 5:
				ins.Kind = DivU
			case 6:
				ins.Kind = Rem
			case 7:
				ins.Kind = RemU
			}
		} else {
			switch f3 {
			case 0:
				switch f7 {
				case 0x00:
					ins.Kind = Add
				case 0x20:
					ins.Kind = Sub
				default:
					return Instruction{}, illegal(w)
				}
			case 1:
				ins.Kind = Sll
			case 2:
				ins.Kind = Slt
			case 3:
				ins.Kind = SltU
			case 4:
				ins.Kind = Xor
			case 5:
				switch f7 {
				case 0x00:
					ins.Kind = Srl
				case 0x20:
					ins.Kind = Sra
				default:
					return Instruction{}, illegal(w)
				}
			case 6:
				ins.Kind = Or
			case 7:
				ins.Kind = And
			}
		}
	case riscv.OpOp32:
		if f7 == 1 {
			switch f3 {
			case 0:
				ins.Kind = MulW
			case 4:
				ins.Kind = DivW
			case 5:
				ins.Kind = DivUW
			case 6:
				ins.Kind = RemW
			case 7:
				ins.Kind = RemUW
			default:
				return Instruction{}, illegal(w)
			}
		} else {
			switch f3 {
			case 0:
				switch f7 {
				case 0x00:
					ins.Kind = AddW
				case 0x20:
					ins.Kind = SubW
				default:
					return Instruction{}, illegal(w)
				}
			case 1:
				ins.Kind = SllW
			case 5:
				switch f7 {
				case 0x00:
					ins.Kind = SrlW
				case 0x20:
					ins.Kind = SraW
				default:
					return Instruction{}, illegal(w)
				}
			default:
				return Instruction{}, illegal(w)
			}
		}
	case riscv.OpLui:
		ins.Kind = Lui
		ins.Imm = immU(w)
	case riscv.OpAuipc:
		ins.Kind = Auipc
		ins.Imm = immU(w)
	case riscv.OpJal:
		ins.Kind = Jal
		ins.Imm = immJ(w)
	case riscv.OpJalr:
		if f3 != 0 {
			return Instruction{}, illegal(w)
		}
		ins.Kind = Jalr
		ins.Imm = immI(w)
	case riscv.OpSystem:
		switch f3 {
		case 0:
			switch w >> 20 {
			case 0:
				ins.Kind = Ecall
			case 1:
				ins.Kind = Ebreak
			case 0x302:
				ins.Kind = Mret
			case 0x102:
				ins.Kind = Sret
			case 0x105:
				ins.Kind = Wfi
			default:
				if f7 == 0x09 {
					ins.Kind = SfenceVMA
				} else {
					return Instruction{}, illegal(w)
				}
			}
		case 1:
			ins.Kind = CsrRW
			ins.Csr = uint16(w >> 20)
		case 2:
			ins.Kind = CsrRS
			ins.Csr = uint16(w >> 20)
		case 3:
			ins.Kind = CsrRC
			ins.Csr = uint16(w >> 20)
		case 5:
			ins.Kind = CsrRWI
			ins.Csr = uint16(w >> 20)
			ins.Imm = int64(rs1(w))
		case 6:
			ins.Kind = CsrRSI
			ins.Csr = uint16(w >> 20)
			ins.Imm = int64(rs1(w))
		case 7:
			ins.Kind = CsrRCI
			ins.Csr = uint16(w >> 20)
			ins.Imm = int64(rs1(w))
		default:
			return Instruction{}, illegal(w)
		}
	case riscv.OpMiscMem:
		if f3 == 1 {
			ins.Kind = FenceI
		} else {
			ins.Kind = Fence
		}
	case riscv.OpAmo:
		ins.Aq = f7&0x2 != 0
		ins.Rl = f7&0x1 != 0
		amoOp := f7 >> 2
		wide := f3 == 3 // 010 = W, 011 = D
		if f3 != 2 && f3 != 3 {
			return Instruction{}, illegal(w)
		}
		k, err := amoKind(amoOp, wide)
		if err != nil {
			return Instruction{}, err
		}
		ins.Kind = k
	case riscv.OpLoadFP:
		ins.Kind = FLoad
	case riscv.OpStoreFP:
		ins.Kind = FStore
	case riscv.OpOpFP, riscv.OpMAdd, riscv.OpMSub, riscv.OpNMSub, riscv.OpNMAdd:
		ins.Kind = FOther
	default:
		return Instruction{}, illegal(w)
	}
	return ins, nil
}

func immJ(w uint32) int64 {
	v := (((w >> 21) & 0x3FF) << 1) |
		(((w >> 20) & 0x1) << 10) |
		(((w >> 12) & 0xFF) << 11) |
		((w >> 31) << 19)
	return signExtend(uint64(v), 19)
}

func amoKind(op uint32, wide bool) (Kind, error) {
	if wide {
		switch op {
		case 0x02:
			return LrD, nil
		case 0x03:
			return ScD, nil
		case 0x00:
			return AmoAddD, nil
		case 0x01:
			return AmoSwapD, nil
		case 0x04:
			return AmoXorD, nil
		case 0x08:
			return AmoOrD, nil
		case 0x0c:
			return AmoAndD, nil
		case 0x10:
			return AmoMinD, nil
		case 0x14:
			return AmoMaxD, nil
		case 0x18:
			return AmoMinUD, nil
		case 0x1c:
			return AmoMaxUD, nil
		}
	} else {
		switch op {
		case 0x02:
			return LrW, nil
		case 0x03:
			return ScW, nil
		case 0x00:
			return AmoAddW, nil
		case 0x01:
			return AmoSwapW, nil
		case 0x04:
			return AmoXorW, nil
		case 0x08:
			return AmoOrW, nil
		case 0x0c:
			return AmoAndW, nil
		case 0x10:
			return AmoMinW, nil
		case 0x14:
			return AmoMaxW, nil
		case 0x18:
			return AmoMinUW, nil
		case 0x1c:
			return AmoMaxUW, nil
		}
	}
	return Illegal, fmt.Errorf("unknown atomic operation %#x (wide=%v)", op, wide)
}

func illegal(w uint32) error {
	return fmt.Errorf("illegal instruction: %#08x", w)
}
