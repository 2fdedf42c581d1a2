package hart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvcore/rvemu/memory"
	"github.com/rvcore/rvemu/riscv"
)

func stepOne(t *testing.T, h *Hart, word uint32) {
	t.Helper()
	h.mem.WriteUint(h.PC, 4, uint64(word))
	require.NoError(t, h.Step())
}

func TestExecuteAddI(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 10
	stepOne(t, h, addi(6, 5, -3))
	require.Equal(t, uint64(7), h.Regs[6])
	require.Equal(t, uint64(0x1004), h.PC)
}

func TestExecuteUnsignedShiftRV64(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 1
	// shamt = 40: only representable once the decoder treats bits[25:20]
	// as a full 6-bit field (the bug fixed in decode/decode.go).
	stepOne(t, h, slliRV64(6, 5, 40))
	require.Equal(t, uint64(1)<<40, h.Regs[6])

	h2 := newTestHart(mem, 0x1000)
	h2.Regs[5] = uint64(1) << 63
	stepOne(t, h2, srliRV64(6, 5, 63))
	require.Equal(t, uint64(1), h2.Regs[6])
}

func TestExecuteLuiSignExtends(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	stepOne(t, h, lui(5, -1<<12)) // imm[31:12] all ones -> -4096 sign-extended, low 12 bits zero
	require.Equal(t, uint64(0xFFFFFFFFFFFFF000), h.Regs[5])
}

func TestExecuteLoadStoreRoundTrip(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 0x2000 // base pointer
	h.Regs[6] = 0xDEADBEEF

	stepOne(t, h, sw(5, 6, 8))
	stepOne(t, h, lw(7, 5, 8))

	require.Equal(t, uint64(0xFFFFFFFFDEADBEEF), h.Regs[7]) // sign-extended lw
}

func TestExecuteBranchTaken(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 1
	h.Regs[6] = 2
	stepOne(t, h, blt(5, 6, 100))
	require.Equal(t, uint64(0x1000+100), h.PC)
}

func TestExecuteBranchNotTaken(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 2
	h.Regs[6] = 1
	stepOne(t, h, blt(5, 6, 100))
	require.Equal(t, uint64(0x1004), h.PC)
}

func TestExecuteDivideByZero(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 42
	h.Regs[6] = 0
	stepOne(t, h, div(7, 5, 6))
	require.Equal(t, ^uint64(0), h.Regs[7], "div by zero must be all-ones, not a trap")
}

// TestExecuteLoadReservedStoreConditional mirrors spec.md's lr/sc scenario:
// a successful pair at the same address, then a failed sc after the
// reservation has been cleared by the first sc.
func TestExecuteLoadReservedStoreConditional(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 0x3000
	mem.WriteUint(0x3000, 4, 7)
	h.Regs[6] = 99

	stepOne(t, h, lrW(7, 5))
	require.Equal(t, uint64(7), h.Regs[7])

	stepOne(t, h, scW(8, 5, 6))
	require.Equal(t, uint64(0), h.Regs[8], "first sc after a matching lr must succeed")
	require.Equal(t, uint64(99), mem.ReadUint(0x3000, 4))

	stepOne(t, h, scW(9, 5, 6))
	require.Equal(t, uint64(1), h.Regs[9], "second sc with no outstanding reservation must fail")
}

// TestExecuteOrdinaryStoreClearsReservation mirrors the reviewer's repro:
// an ordinary store to the reserved address, interleaved between lr.w and
// sc.w, must invalidate the reservation even though it's not sc's own
// store.
func TestExecuteOrdinaryStoreClearsReservation(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 0x3000
	mem.WriteUint(0x3000, 4, 7)
	h.Regs[6] = 99

	stepOne(t, h, lrW(7, 5))

	h.Regs[10] = 1
	stepOne(t, h, sw(5, 10, 0)) // an ordinary store to the reserved address

	stepOne(t, h, scW(8, 5, 6))
	require.Equal(t, uint64(1), h.Regs[8], "sc must fail once an intervening store has touched the reserved address")
}

func TestExecuteAmoAddReturnsPreviousValue(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 0x3000
	mem.WriteUint(0x3000, 4, 10)
	h.Regs[6] = 5

	stepOne(t, h, amoaddW(7, 5, 6))
	require.Equal(t, uint64(10), h.Regs[7])
	require.Equal(t, uint64(15), mem.ReadUint(0x3000, 4))
}

func TestExecuteAmoSwap(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	h.Regs[5] = 0x3000
	mem.WriteUint(0x3000, 4, 1)
	h.Regs[6] = 2

	stepOne(t, h, amoswapW(7, 5, 6))
	require.Equal(t, uint64(1), h.Regs[7])
	require.Equal(t, uint64(2), mem.ReadUint(0x3000, 4))
}

func TestExecuteCompressedBranchTaken(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	// c.li x8, 0: quadrant 1, funct3 010, rd=01000 (x8), imm bits all zero.
	cLi := uint16(0b010_0_01000_00000_01)
	// c.beqz x8, +6: quadrant 1, funct3 110, rs1'=000 (x8, cReg offset +8),
	// imm encoded as bits[4:3]=11 (contributes raw bits[2:1]=11 -> imm=6),
	// every other imm field bit zero.
	cBeqz := uint16(0b110_0_00_000_00_11_0_01)
	mem.WriteUint(0x1000, 2, uint64(cLi))
	mem.WriteUint(0x1002, 2, uint64(cBeqz))
	require.Equal(t, uint16(0xC019), cBeqz)

	require.NoError(t, h.Step())
	require.Equal(t, uint64(0x1002), h.PC)
	require.NoError(t, h.Step())
	require.Equal(t, uint64(0x1002+6), h.PC)
}

// TestExecuteSignedOpsOnRV32 confirms slt, blt, bge and div reinterpret a
// register's zero-extended RV32 value as signed before operating on it,
// rather than reading its 64-bit container at face value.
func TestExecuteSignedOpsOnRV32(t *testing.T) {
	mem := memory.New()
	h := New(mem, WithEntry(0x1000), WithStackPointer(0), WithXLEN(32))
	h.Regs[5] = uint64(^uint32(0)) // x5 = -1, stored zero-extended into 32 bits by setReg

	stepOne(t, h, encR(riscv.OpOp, 2, 0, 7, 5, 0)) // slt x7, x5, x0
	require.Equal(t, uint64(1), h.Regs[7], "-1 < 0 must hold once x5 is read as signed")

	h2 := New(mem, WithEntry(0x1000), WithStackPointer(0), WithXLEN(32))
	h2.Regs[5] = uint64(^uint32(0))
	stepOne(t, h2, blt(5, riscv.RegZero, 4*4))
	require.Equal(t, uint64(0x1000+4*4), h2.PC, "blt must take the branch for a negative x5")

	h3 := New(mem, WithEntry(0x1000), WithStackPointer(0), WithXLEN(32))
	h3.Regs[5] = uint64(^uint32(0))
	stepOne(t, h3, bge(5, riscv.RegZero, 4*4))
	require.Equal(t, uint64(0x1000+4), h3.PC, "bge must not take the branch for a negative x5")

	h4 := New(mem, WithEntry(0x1000), WithStackPointer(0), WithXLEN(32))
	negFour := int32(-4)
	negTwo := int32(-2)
	h4.Regs[5] = uint64(uint32(negFour)) // x5 = -4, zero-extended
	h4.Regs[6] = 2
	stepOne(t, h4, div(7, 5, 6))
	require.Equal(t, uint64(uint32(negTwo)), h4.Regs[7], "-4 / 2 must read as -2, not as a huge positive quotient")
}

func TestExecuteIllegalInstructionTraps(t *testing.T) {
	mem := memory.New()
	h := newTestHart(mem, 0x1000)
	mem.WriteUint(0x1000, 4, 0) // opcode 0 decodes to nothing valid
	require.NoError(t, h.Step())
	require.Equal(t, uint64(riscv.CauseIllegalInstr), h.csr.read(riscv.CsrMcause))
	require.Equal(t, riscv.Machine, h.Priv)
}
