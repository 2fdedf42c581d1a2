package hart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvcore/rvemu/memory"
	"github.com/rvcore/rvemu/riscv"
)

func loadProgram(t *testing.T, mem *memory.Memory, base uint64, words []uint32) {
	t.Helper()
	for i, w := range words {
		mem.WriteUint(base+uint64(i*4), 4, uint64(w))
	}
}

func newTestHart(mem *memory.Memory, entry uint64) *Hart {
	return New(mem, WithEntry(entry), WithStackPointer(0), WithXLEN(64))
}

func runUntilHalt(t *testing.T, h *Hart, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		require.NoError(t, h.Step())
		if h.Halted {
			return
		}
	}
	t.Fatalf("ran out of steps without halting")
}

// TestSumOneToTen mirrors spec.md's "sum 1..10" scenario: a small loop
// accumulates into a0 and returns through ra, which the loader convention
// clears to 0 so the hart halts there.
func TestSumOneToTen(t *testing.T) {
	mem := memory.New()
	const base = 0x1000
	// a0 = sum, a1 = i (counter from 1..10), a2 = loop bound (ra already 0)
	words := []uint32{
		addi(riscv.RegA0, riscv.RegZero, 0), // a0 = 0
		addi(11, riscv.RegZero, 1),          // a1 = 1
		addi(12, riscv.RegZero, 11),         // a2 = 11 (loop bound)
		// loop:
		add(riscv.RegA0, riscv.RegA0, 11),    // a0 += a1
		addi(11, 11, 1),                      // a1 += 1
		blt(11, 12, -int32(2*4)),             // if a1 < a2 goto loop
		jalr(riscv.RegZero, riscv.RegRA, 0),  // return (ra == 0 -> halt)
	}
	loadProgram(t, mem, base, words)

	h := newTestHart(mem, base)
	runUntilHalt(t, h, 1000)

	require.Equal(t, uint64(55), h.Regs[riscv.RegA0])
	require.True(t, h.Halted)
}

func TestBubbleSort100Integers(t *testing.T) {
	mem := memory.New()
	const base = 0x1000
	const arrayBase = 512
	const n = 100
	const endAddr = arrayBase + 4*(n-1)

	for i := 0; i < n; i++ {
		mem.WriteUint(arrayBase+uint64(i*4), 4, uint64(n-i))
	}

	// x7 = swapped flag, x8 = inner-loop pointer, x9 = end pointer (constant),
	// x10/x11 = the pair of elements being compared.
	prog := []uint32{
		addi(9, riscv.RegZero, endAddr), // x9 = &array[n-1]
		addi(7, riscv.RegZero, 1),       // swapped = 1
		// outer:
		bge(riscv.RegZero, 7, 13*4), // if !swapped goto done
		addi(7, riscv.RegZero, 0),   // swapped = 0
		addi(8, riscv.RegZero, arrayBase),
		// inner:
		bge(8, 9, 9*4), // if ptr >= end goto innerDone (falls through to outer)
		lw(10, 8, 0),
		lw(11, 8, 4),
		blt(10, 11, 4*4), // already in order, skip the swap
		sw(8, 11, 0),
		sw(8, 10, 4),
		addi(7, riscv.RegZero, 1), // swapped = 1
		// skip:
		addi(8, 8, 4),
		jal(riscv.RegZero, -8*4), // goto inner
		// innerDone:
		jal(riscv.RegZero, -12*4), // goto outer
		// done:
		jalr(riscv.RegZero, riscv.RegRA, 0),
	}
	loadProgram(t, mem, base, prog)

	h := newTestHart(mem, base)
	runUntilHalt(t, h, 2_000_000)

	prev := mem.ReadUint(arrayBase, 4)
	for i := 1; i < n; i++ {
		cur := mem.ReadUint(arrayBase+uint64(i*4), 4)
		require.LessOrEqualf(t, prev, cur, "array not sorted at index %d", i)
		prev = cur
	}
}

// TestSignedOverflowDivide exercises the one DIV case that can't just use
// Go's native / operator naively: dividing the most negative value by -1
// overflows two's complement, and RISC-V defines the result as wrapping
// back to the dividend rather than trapping.
func TestSignedOverflowDivide(t *testing.T) {
	mem := memory.New()
	const base = 0x1000
	loadProgram(t, mem, base, []uint32{div(7, 5, 6)}) // x7 = x5 / x6

	h := newTestHart(mem, base)
	h.Regs[5] = uint64(1) << 63 // math.MinInt64
	h.Regs[6] = ^uint64(0)              // -1

	require.NoError(t, h.Step())
	require.Equal(t, h.Regs[5], h.Regs[7], "MinInt64 / -1 must wrap to MinInt64")
}
