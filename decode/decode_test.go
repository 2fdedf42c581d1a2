package decode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvcore/rvemu/riscv"
)

func TestDecodeAddI(t *testing.T) {
	// addi x1, x2, -1
	w := uint32(0xFFF10093)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, AddI, ins.Kind)
	require.EqualValues(t, 1, ins.Rd)
	require.EqualValues(t, 2, ins.Rs1)
	require.EqualValues(t, -1, ins.Imm)
	require.EqualValues(t, 4, ins.Len)
}

func TestDecodeLui(t *testing.T) {
	// lui x5, 0x12345
	w := uint32(0x123452B7)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, Lui, ins.Kind)
	require.EqualValues(t, 5, ins.Rd)
	require.EqualValues(t, 0x12345000, ins.Imm)
}

func TestDecodeJalSignExtendsNegativeOffset(t *testing.T) {
	// jal x0, -4  (encoded: imm[20|10:1|11|19:12] all-ones for -4)
	w := uint32(0xFFDFF06F)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, Jal, ins.Kind)
	require.EqualValues(t, -4, ins.Imm)
}

func TestDecodeBranchImmediate(t *testing.T) {
	// beq x1, x2, 8
	w := uint32(0x00208463)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, Beq, ins.Kind)
	require.EqualValues(t, 8, ins.Imm)
}

func TestDecodeStoreImmediate(t *testing.T) {
	// sw x1, -4(x2)
	w := uint32(0xFE112E23)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, Sw, ins.Kind)
	require.EqualValues(t, 2, ins.Rs1)
	require.EqualValues(t, 1, ins.Rs2)
	require.EqualValues(t, -4, ins.Imm)
}

func TestDecodeMExtension(t *testing.T) {
	// mul x1, x2, x3
	w := uint32(0x023100B3)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, Mul, ins.Kind)
}

func TestDecodeAmoSwapWithOrderingFlags(t *testing.T) {
	// amoswap.w.aqrl x1, x2, (x3): funct7 = 0000111 (funct5 00001, aq, rl), op = 0101111, f3=010
	w := uint32(0b0000111<<25 | 2<<20 | 3<<15 | 2<<12 | 1<<7 | riscv.OpAmo)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, AmoSwapW, ins.Kind)
	require.True(t, ins.Aq)
	require.True(t, ins.Rl)
}

func TestDecodeCsr(t *testing.T) {
	// csrrs x1, mstatus(0x300), x2
	w := uint32(0x300<<20 | 2<<15 | 2<<12 | 1<<7 | 0b1110011)
	ins, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, CsrRS, ins.Kind)
	require.EqualValues(t, 0x300, ins.Csr)
}

func TestDecodeIllegalOpcode(t *testing.T) {
	_, err := Decode(0x7F) // reserved opcode 1111111, bottom bits 1111111
	require.Error(t, err)
}
