package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCompressedAddi4spn(t *testing.T) {
	// c.addi4spn x8, x2, 4  -> quadrant 0, funct3 000, insn[6]=1 (imm[2])
	insn := uint16(0b000_00000010_000_00)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, AddI, ins.Kind)
	require.EqualValues(t, 8, ins.Rd)
	require.EqualValues(t, 2, ins.Rs1)
	require.EqualValues(t, 4, ins.Imm)
}

func TestDecodeCompressedAddi4spnZeroIsIllegal(t *testing.T) {
	insn := uint16(0b000_0000000_000_00)
	_, err := DecodeCompressed(insn, 64)
	require.Error(t, err)
}

func TestDecodeCompressedNop(t *testing.T) {
	insn := uint16(0b000_0_00000_00000_01) // c.nop
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, AddI, ins.Kind)
	require.EqualValues(t, 0, ins.Rd)
	require.EqualValues(t, 0, ins.Imm)
}

func TestDecodeCompressedLui(t *testing.T) {
	// c.lui x1, 1: rd=00001, imm bits insn[6:2]=00001, insn[12]=0
	insn := uint16(0b011_0_00001_00001_01)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Lui, ins.Kind)
	require.EqualValues(t, 1, ins.Rd)
	require.EqualValues(t, 1<<12, ins.Imm)
}

func TestDecodeCompressedLuiReservedRd2(t *testing.T) {
	// rd field == 2 always routes to c.addi16sp regardless of funct3=011, never c.lui
	insn := uint16(0b011_0_00010_00001_01)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, AddI, ins.Kind)
	require.EqualValues(t, 2, ins.Rd)
}

func TestDecodeCompressedLuiNzimmZeroIsIllegal(t *testing.T) {
	insn := uint16(0b011_0_00001_00000_01)
	_, err := DecodeCompressed(insn, 64)
	require.Error(t, err)
}

func TestDecodeCompressedJrX0IsIllegal(t *testing.T) {
	insn := uint16(0b100_0_00000_00000_10)
	_, err := DecodeCompressed(insn, 64)
	require.Error(t, err)
}

func TestDecodeCompressedEbreak(t *testing.T) {
	insn := uint16(0b100_1_00000_00000_10)
	_, err := DecodeCompressed(insn, 64)
	// rd=0, rs2=0, bit12=1 is c.ebreak, not c.jalr x0 -- disambiguated by rd==0 && rs2==0
	require.NoError(t, err)
}

func TestDecodeCompressedJr(t *testing.T) {
	// c.jr x1: rd=00001, rs2=00000, bit12=0
	insn := uint16(0b100_0_00001_00000_10)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Jalr, ins.Kind)
	require.EqualValues(t, 0, ins.Rd)
	require.EqualValues(t, 1, ins.Rs1)
}

func TestDecodeCompressedMv(t *testing.T) {
	// c.mv x1, x2: rd=00001, rs2=00010, bit12=0
	insn := uint16(0b100_0_00001_00010_10)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Add, ins.Kind)
	require.EqualValues(t, 1, ins.Rd)
	require.EqualValues(t, 0, ins.Rs1)
	require.EqualValues(t, 2, ins.Rs2)
}

func TestDecodeCompressedLw(t *testing.T) {
	// c.lw x8, 0(x9): rs1'=001 (+8=9), rd'=000 (+8=8), imm bits all zero
	insn := uint16(0b010_000_001_00_000_00)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Lw, ins.Kind)
	require.EqualValues(t, 8, ins.Rd)
	require.EqualValues(t, 9, ins.Rs1)
	require.EqualValues(t, 0, ins.Imm)
}

func TestDecodeCompressedBeqz(t *testing.T) {
	// c.beqz x8, 0
	insn := uint16(0b110_000_000_00000_01)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Beq, ins.Kind)
	require.EqualValues(t, 8, ins.Rs1)
	require.EqualValues(t, 0, ins.Imm)
}

func TestDecodeCompressedJ(t *testing.T) {
	insn := uint16(0b101_00000000000_01) // c.j 0
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, Jal, ins.Kind)
	require.EqualValues(t, 0, ins.Rd)
	require.EqualValues(t, 0, ins.Imm)
}

func TestDecodeCompressedJalRV32(t *testing.T) {
	insn := uint16(0b001_00000000000_01) // c.jal 0
	ins, err := DecodeCompressed(insn, 32)
	require.NoError(t, err)
	require.Equal(t, Jal, ins.Kind)
	require.EqualValues(t, 1, ins.Rd)
	require.EqualValues(t, 0, ins.Imm)
}

func TestDecodeCompressedAddiwRV64UsesSameQuadrantSlot(t *testing.T) {
	// c.addiw x8, 1: the RV64 instruction occupying the encoding RV32 uses
	// for c.jal.
	insn := uint16(0b001_0_01000_00001_01)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.Equal(t, AddIW, ins.Kind)
	require.EqualValues(t, 8, ins.Rd)
	require.EqualValues(t, 1, ins.Imm)
}

func TestDecodeCompressedAllZeroIsIllegal(t *testing.T) {
	_, err := DecodeCompressed(0, 64)
	require.Error(t, err)
}

func TestDecodeCompressedLenIsTwo(t *testing.T) {
	insn := uint16(0b000_0_00000_00000_01)
	ins, err := DecodeCompressed(insn, 64)
	require.NoError(t, err)
	require.EqualValues(t, 2, ins.Len)
}
