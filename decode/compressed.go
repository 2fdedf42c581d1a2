package decode

import "fmt"

// Compressed-register offset: the 3-bit "popular" register encoding used
// by CIW/CL/CS/CB always names one of x8..x15.
const cRegOffset = 8

func bit(insn uint16, i uint) uint32 { return uint32((insn >> i) & 1) }
func bits(insn uint16, hi, lo uint) uint32 {
	return uint32(insn>>lo) & ((1 << (hi - lo + 1)) - 1)
}

func cReg(field uint32) uint32 { return field + cRegOffset }

// cjImm extracts the CJ-format signed offset shared by C.J and C.JAL; the
// two differ only in which register (x0 or x1) receives the return address.
func cjImm(insn uint16) int64 {
	raw := bit(insn, 12)<<11 | bit(insn, 11)<<4 | bits(insn, 10, 9)<<8 | bit(insn, 8)<<10 |
		bit(insn, 7)<<6 | bit(insn, 6)<<7 | bits(insn, 5, 3)<<1 | bit(insn, 2)<<5
	return signExtend(uint64(raw), 11)
}

// DecodeCompressed parses a 16-bit RVC instruction into its equivalent
// Instruction record. xlen is 32 or 64: several opcodes (funct3 011/111 in
// quadrants 0 and 2, funct3 001 in quadrant 1, and the C1 register-op
// subgroup selected by bit 12)
// differ between RV32 and RV64.
//
// This completes the decoding rvgo/fast/c_extension.go and
// rvgo/fast/decompressor.go left as an empty switch (see DESIGN.md).
func DecodeCompressed(insn uint16, xlen int) (Instruction, error) {
	if insn == 0 {
		return Instruction{}, fmt.Errorf("illegal compressed instruction: all-zero")
	}
	quadrant := insn & 0x3
	funct3 := uint32(insn>>13) & 0x7

	var ins Instruction
	var err error
	switch quadrant {
	case 0x0:
		ins, err = decodeC0(insn, funct3, xlen)
	case 0x1:
		ins, err = decodeC1(insn, funct3, xlen)
	case 0x2:
		ins, err = decodeC2(insn, funct3, xlen)
	default:
		return Instruction{}, fmt.Errorf("not a compressed instruction: %#04x", insn)
	}
	if err != nil {
		return Instruction{}, err
	}
	ins.Len = 2
	return ins, nil
}

func decodeC0(insn uint16, funct3 uint32, xlen int) (Instruction, error) {
	switch funct3 {
	case 0x0: // C.ADDI4SPN
		imm := bit(insn, 6)<<2 | bit(insn, 5)<<3 | bits(insn, 12, 11)<<4 | bits(insn, 10, 7)<<6
		if imm == 0 {
			return Instruction{}, fmt.Errorf("illegal compressed instruction: c.addi4spn nzuimm=0")
		}
		rd := cReg(bits(insn, 4, 2))
		return Instruction{Kind: AddI, Rd: rd, Rs1: 2, Imm: int64(imm)}, nil
	case 0x1: // C.FLD (RV32/64) / C.LQ (RV128): recognised, not executed
		return Instruction{Kind: FLoad}, nil
	case 0x2: // C.LW
		imm := bit(insn, 6)<<2 | bits(insn, 12, 10)<<3 | bit(insn, 5)<<6
		rs1 := cReg(bits(insn, 9, 7))
		rd := cReg(bits(insn, 4, 2))
		return Instruction{Kind: Lw, Rd: rd, Rs1: rs1, Imm: int64(imm)}, nil
	case 0x3: // C.LD (RV64); C.FLW (RV32): recognised, not executed
		if xlen != 64 {
			return Instruction{Kind: FLoad}, nil
		}
		imm := bits(insn, 12, 10)<<3 | bits(insn, 6, 5)<<6
		rs1 := cReg(bits(insn, 9, 7))
		rd := cReg(bits(insn, 4, 2))
		return Instruction{Kind: Ld, Rd: rd, Rs1: rs1, Imm: int64(imm)}, nil
	case 0x5: // C.FSD / C.SQ: recognised, not executed
		return Instruction{Kind: FStore}, nil
	case 0x6: // C.SW
		imm := bit(insn, 6)<<2 | bits(insn, 12, 10)<<3 | bit(insn, 5)<<6
		rs1 := cReg(bits(insn, 9, 7))
		rs2 := cReg(bits(insn, 4, 2))
		return Instruction{Kind: Sw, Rs1: rs1, Rs2: rs2, Imm: int64(imm)}, nil
	case 0x7: // C.SD (RV64); C.FSW (RV32): recognised, not executed
		if xlen != 64 {
			return Instruction{Kind: FStore}, nil
		}
		imm := bits(insn, 12, 10)<<3 | bits(insn, 6, 5)<<6
		rs1 := cReg(bits(insn, 9, 7))
		rs2 := cReg(bits(insn, 4, 2))
		return Instruction{Kind: Sd, Rs1: rs1, Rs2: rs2, Imm: int64(imm)}, nil
	default: // funct3 == 0x4 is reserved
		return Instruction{}, fmt.Errorf("reserved compressed instruction: quadrant 0 funct3 %#x", funct3)
	}
}

func decodeC1(insn uint16, funct3 uint32, xlen int) (Instruction, error) {
	rd := bits(insn, 11, 7)
	ciImm := func() int64 {
		raw := bit(insn, 12)<<5 | bits(insn, 6, 2)
		return signExtend(uint64(raw), 5)
	}

	switch funct3 {
	case 0x0: // C.NOP (rd=0) / C.ADDI
		return Instruction{Kind: AddI, Rd: rd, Rs1: rd, Imm: ciImm()}, nil
	case 0x1: // C.JAL (RV32) / C.ADDIW (RV64; rd=0 reserved)
		if xlen != 64 {
			return Instruction{Kind: Jal, Rd: 1, Imm: cjImm(insn)}, nil
		}
		return Instruction{Kind: AddIW, Rd: rd, Rs1: rd, Imm: ciImm()}, nil
	case 0x2: // C.LI
		return Instruction{Kind: AddI, Rd: rd, Rs1: 0, Imm: ciImm()}, nil
	case 0x3:
		if rd == 2 { // C.ADDI16SP
			raw := bit(insn, 12)<<9 | bit(insn, 6)<<4 | bit(insn, 5)<<6 | bits(insn, 4, 3)<<7 | bit(insn, 2)<<5
			imm := signExtend(uint64(raw), 9)
			if imm == 0 {
				return Instruction{}, fmt.Errorf("reserved compressed instruction: c.addi16sp nzimm=0")
			}
			return Instruction{Kind: AddI, Rd: 2, Rs1: 2, Imm: imm}, nil
		}
		// C.LUI
		if rd == 0 {
			return Instruction{}, fmt.Errorf("reserved compressed instruction: c.lui rd=0")
		}
		raw := bit(insn, 12)<<5 | bits(insn, 6, 2)
		imm := signExtend(uint64(raw), 5)
		if imm == 0 {
			return Instruction{}, fmt.Errorf("reserved compressed instruction: c.lui nzimm=0")
		}
		return Instruction{Kind: Lui, Rd: rd, Imm: imm << 12}, nil
	case 0x4:
		return decodeC1ArithGroup(insn, xlen)
	case 0x5: // C.J
		return Instruction{Kind: Jal, Rd: 0, Imm: cjImm(insn)}, nil
	case 0x6, 0x7: // C.BEQZ / C.BNEZ
		raw := bit(insn, 12)<<8 | bits(insn, 11, 10)<<3 | bits(insn, 6, 5)<<6 | bits(insn, 4, 3)<<1 | bit(insn, 2)<<5
		imm := signExtend(uint64(raw), 8)
		rs1 := cReg(bits(insn, 9, 7))
		k := Beq
		if funct3 == 0x7 {
			k = Bne
		}
		return Instruction{Kind: k, Rs1: rs1, Rs2: 0, Imm: imm}, nil
	}
	return Instruction{}, fmt.Errorf("unreachable compressed quadrant 1 funct3 %#x", funct3)
}

func decodeC1ArithGroup(insn uint16, xlen int) (Instruction, error) {
	rd := cReg(bits(insn, 9, 7))
	switch bits(insn, 11, 10) {
	case 0x0: // C.SRLI
		shamt := bit(insn, 12)<<5 | bits(insn, 6, 2)
		return Instruction{Kind: SrlI, Rd: rd, Rs1: rd, Imm: int64(shamt)}, nil
	case 0x1: // C.SRAI
		shamt := bit(insn, 12)<<5 | bits(insn, 6, 2)
		return Instruction{Kind: SraI, Rd: rd, Rs1: rd, Imm: int64(shamt)}, nil
	case 0x2: // C.ANDI
		raw := bit(insn, 12)<<5 | bits(insn, 6, 2)
		imm := signExtend(uint64(raw), 5)
		return Instruction{Kind: AndI, Rd: rd, Rs1: rd, Imm: imm}, nil
	case 0x3:
		rs2 := cReg(bits(insn, 4, 2))
		wide := bit(insn, 12) == 1
		switch bits(insn, 6, 5) {
		case 0x0:
			if wide {
				if xlen != 64 {
					return Instruction{}, fmt.Errorf("c.subw requires rv64")
				}
				return Instruction{Kind: SubW, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			}
			return Instruction{Kind: Sub, Rd: rd, Rs1: rd, Rs2: rs2}, nil
		case 0x1:
			if wide {
				if xlen != 64 {
					return Instruction{}, fmt.Errorf("c.addw requires rv64")
				}
				return Instruction{Kind: AddW, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			}
			return Instruction{Kind: Xor, Rd: rd, Rs1: rd, Rs2: rs2}, nil
		case 0x2:
			if wide {
				return Instruction{}, fmt.Errorf("reserved compressed instruction: quadrant 1 arith group 11/10/1x")
			}
			return Instruction{Kind: Or, Rd: rd, Rs1: rd, Rs2: rs2}, nil
		case 0x3:
			if wide {
				return Instruction{}, fmt.Errorf("reserved compressed instruction: quadrant 1 arith group 11/11/1x")
			}
			return Instruction{Kind: And, Rd: rd, Rs1: rd, Rs2: rs2}, nil
		}
	}
	return Instruction{}, fmt.Errorf("unreachable compressed quadrant 1 arithmetic group")
}

func decodeC2(insn uint16, funct3 uint32, xlen int) (Instruction, error) {
	rd := bits(insn, 11, 7)
	switch funct3 {
	case 0x0: // C.SLLI
		shamt := bit(insn, 12)<<5 | bits(insn, 6, 2)
		return Instruction{Kind: SllI, Rd: rd, Rs1: rd, Imm: int64(shamt)}, nil
	case 0x1: // C.FLDSP: recognised, not executed
		return Instruction{Kind: FLoad}, nil
	case 0x2: // C.LWSP
		if rd == 0 {
			return Instruction{}, fmt.Errorf("reserved compressed instruction: c.lwsp rd=0")
		}
		imm := bit(insn, 12)<<5 | bits(insn, 6, 4)<<2 | bits(insn, 3, 2)<<6
		return Instruction{Kind: Lw, Rd: rd, Rs1: 2, Imm: int64(imm)}, nil
	case 0x3: // C.LDSP (RV64)
		if xlen != 64 {
			return Instruction{}, fmt.Errorf("c.flwsp (RV32) is not supported by this decoder")
		}
		if rd == 0 {
			return Instruction{}, fmt.Errorf("reserved compressed instruction: c.ldsp rd=0")
		}
		imm := bit(insn, 12)<<5 | bits(insn, 6, 5)<<3 | bits(insn, 4, 2)<<6
		return Instruction{Kind: Ld, Rd: rd, Rs1: 2, Imm: int64(imm)}, nil
	case 0x4:
		rs2 := bits(insn, 6, 2)
		if bit(insn, 12) == 0 {
			if rs2 == 0 { // C.JR
				if rd == 0 {
					return Instruction{}, fmt.Errorf("reserved compressed instruction: c.jr x0")
				}
				return Instruction{Kind: Jalr, Rd: 0, Rs1: rd, Imm: 0}, nil
			}
			// C.MV
			return Instruction{Kind: Add, Rd: rd, Rs1: 0, Rs2: rs2}, nil
		}
		if rd == 0 && rs2 == 0 {
			return Instruction{Kind: Ebreak}, nil
		}
		if rs2 == 0 { // C.JALR (rd==0 is unreachable here: caught as c.ebreak above)
			return Instruction{Kind: Jalr, Rd: 1, Rs1: rd, Imm: 0}, nil
		}
		// C.ADD
		return Instruction{Kind: Add, Rd: rd, Rs1: rd, Rs2: rs2}, nil
	case 0x5: // C.FSDSP: recognised, not executed
		return Instruction{Kind: FStore}, nil
	case 0x6: // C.SWSP
		imm := bits(insn, 12, 9)<<2 | bits(insn, 8, 7)<<6
		rs2 := bits(insn, 6, 2)
		return Instruction{Kind: Sw, Rs1: 2, Rs2: rs2, Imm: int64(imm)}, nil
	case 0x7: // C.SDSP (RV64)
		if xlen != 64 {
			return Instruction{}, fmt.Errorf("c.fswsp (RV32) is not supported by this decoder")
		}
		imm := bits(insn, 12, 10)<<3 | bits(insn, 9, 7)<<6
		rs2 := bits(insn, 6, 2)
		return Instruction{Kind: Sd, Rs1: 2, Rs2: rs2, Imm: int64(imm)}, nil
	}
	return Instruction{}, fmt.Errorf("unreachable compressed quadrant 2 funct3 %#x", funct3)
}
