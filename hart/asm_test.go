package hart

import "github.com/rvcore/rvemu/riscv"

// The encoders below hand-assemble the RV32I/RV64I/Zicsr word formats so
// the tests in this package can build small programs without depending on
// an external toolchain. Grounded on _teacher_ref/fast/vm_test.go's style
// of driving Step in a loop and asserting on final register state,
// generalised from its riscv-tests-ELF harness (not available here) to
// inline-assembled programs.

func encR(op, f3, f7, rd, rs1, rs2 uint32) uint32 {
	return op | rd<<7 | f3<<12 | rs1<<15 | rs2<<20 | f7<<25
}

func encI(op, f3, rd, rs1 uint32, imm int32) uint32 {
	return op | rd<<7 | f3<<12 | rs1<<15 | (uint32(imm)&0xFFF)<<20
}

func encS(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return op | (u&0x1F)<<7 | f3<<12 | rs1<<15 | rs2<<20 | (u>>5&0x7F)<<25
}

func encB(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return op | (u>>11&1)<<7 | (u>>1&0xF)<<8 | f3<<12 | rs1<<15 | rs2<<20 |
		(u>>5&0x3F)<<25 | (u>>12&1)<<31
}

func encU(op, rd uint32, imm int32) uint32 {
	return op | rd<<7 | uint32(imm)&0xFFFFF000
}

func encJ(op, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return op | rd<<7 | (u>>12&0xFF)<<12 | (u>>11&1)<<20 | (u>>1&0x3FF)<<21 | (u>>20&1)<<31
}

func addi(rd, rs1 uint32, imm int32) uint32  { return encI(riscv.OpImm, 0, rd, rs1, imm) }
func andi(rd, rs1 uint32, imm int32) uint32  { return encI(riscv.OpImm, 7, rd, rs1, imm) }
func jalr(rd, rs1 uint32, imm int32) uint32  { return encI(riscv.OpJalr, 0, rd, rs1, imm) }
func jal(rd uint32, imm int32) uint32        { return encJ(riscv.OpJal, rd, imm) }
func add(rd, rs1, rs2 uint32) uint32         { return encR(riscv.OpOp, 0, 0x00, rd, rs1, rs2) }
func sub(rd, rs1, rs2 uint32) uint32         { return encR(riscv.OpOp, 0, 0x20, rd, rs1, rs2) }
func div(rd, rs1, rs2 uint32) uint32         { return encR(riscv.OpOp, 4, 1, rd, rs1, rs2) }
func srliw(rd, rs1 uint32, shamt uint32) uint32 {
	return encR(riscv.OpImm32, 5, 0x00, rd, rs1, shamt)
}
func slliRV64(rd, rs1 uint32, shamt uint32) uint32 {
	return riscv.OpImm | rd<<7 | 1<<12 | rs1<<15 | (shamt&0x3F)<<20
}
func srliRV64(rd, rs1 uint32, shamt uint32) uint32 {
	return riscv.OpImm | rd<<7 | 5<<12 | rs1<<15 | (shamt&0x3F)<<20
}
func blt(rs1, rs2 uint32, imm int32) uint32 { return encB(riscv.OpBranch, 4, rs1, rs2, imm) }
func bge(rs1, rs2 uint32, imm int32) uint32 { return encB(riscv.OpBranch, 5, rs1, rs2, imm) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return encB(riscv.OpBranch, 0, rs1, rs2, imm) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return encS(riscv.OpStore, 2, rs1, rs2, imm) }
func sd(rs1, rs2 uint32, imm int32) uint32  { return encS(riscv.OpStore, 3, rs1, rs2, imm) }
func lw(rd, rs1 uint32, imm int32) uint32   { return encI(riscv.OpLoad, 2, rd, rs1, imm) }
func ld(rd, rs1 uint32, imm int32) uint32   { return encI(riscv.OpLoad, 3, rd, rs1, imm) }
func lui(rd uint32, imm int32) uint32       { return encU(riscv.OpLui, rd, imm) }

func ecall() uint32  { return riscv.OpSystem }
func ebreak() uint32 { return riscv.OpSystem | 1<<20 }
func mret() uint32   { return riscv.OpSystem | 0x302<<20 }
func sret() uint32   { return riscv.OpSystem | 0x102<<20 }

func csrrw(rd uint32, csr uint16, rs1 uint32) uint32 {
	return encI(riscv.OpSystem, 1, rd, rs1, int32(csr))
}
func csrrs(rd uint32, csr uint16, rs1 uint32) uint32 {
	return encI(riscv.OpSystem, 2, rd, rs1, int32(csr))
}

func amoaddW(rd, rs1, rs2 uint32) uint32 {
	return riscv.OpAmo | rd<<7 | 2<<12 | rs1<<15 | rs2<<20 | 0x00<<27
}
func amoswapW(rd, rs1, rs2 uint32) uint32 {
	return riscv.OpAmo | rd<<7 | 2<<12 | rs1<<15 | rs2<<20 | 0x01<<27
}
func lrW(rd, rs1 uint32) uint32 {
	return riscv.OpAmo | rd<<7 | 2<<12 | rs1<<15 | 0<<20 | 0x02<<27
}
func scW(rd, rs1, rs2 uint32) uint32 {
	return riscv.OpAmo | rd<<7 | 2<<12 | rs1<<15 | rs2<<20 | 0x03<<27
}
