// Package decode turns a fetched instruction word into a single tagged
// Instruction value. It has no access to registers or memory: decoding is
// pure, so decode(encode(inst)) == inst for every instruction family
// (spec.md §8's round-trip law).
package decode

// Kind tags exactly one semantic operation. The hart's execute step
// switches on Kind; a Kind with no matching execute case is not reported at
// compile time and falls to that switch's default arm, which raises an
// illegal-instruction trap.
type Kind int

const (
	Illegal Kind = iota

	// Integer register-immediate
	AddI
	SltI
	SltIU
	XorI
	OrI
	AndI
	SllI
	SrlI
	SraI
	AddIW
	SllIW
	SrlIW
	SraIW

	// Integer register-register
	Add
	Sub
	Sll
	Slt
	SltU
	Xor
	Srl
	Sra
	Or
	And
	AddW
	SubW
	SllW
	SrlW
	SraW

	// M extension
	Mul
	MulH
	MulHSU
	MulHU
	Div
	DivU
	Rem
	RemU
	MulW
	DivW
	DivUW
	RemW
	RemUW

	// Upper immediates / control transfer
	Lui
	Auipc
	Jal
	Jalr
	Beq
	Bne
	Blt
	Bge
	BltU
	BgeU

	// Loads/stores
	Lb
	Lh
	Lw
	Ld
	LbU
	LhU
	LwU
	Sb
	Sh
	Sw
	Sd

	// Memory ordering
	Fence
	FenceI

	// Environment / breakpoint
	Ecall
	Ebreak
	Mret
	Sret
	Wfi
	SfenceVMA

	// CSR
	CsrRW
	CsrRS
	CsrRC
	CsrRWI
	CsrRSI
	CsrRCI

	// Atomics (A extension)
	LrW
	ScW
	AmoSwapW
	AmoAddW
	AmoXorW
	AmoAndW
	AmoOrW
	AmoMinW
	AmoMaxW
	AmoMinUW
	AmoMaxUW
	LrD
	ScD
	AmoSwapD
	AmoAddD
	AmoXorD
	AmoAndD
	AmoOrD
	AmoMinD
	AmoMaxD
	AmoMinUD
	AmoMaxUD

	// Floating point (F/D): recognised for completeness per spec.md §1,
	// never executed with real semantics — the hart treats these as a
	// fetch-and-skip no-op (see hart/execute.go).
	FLoad
	FStore
	FOther
)

// Instruction is the tagged sum produced by Decode/DecodeCompressed. Only
// the fields relevant to Kind are meaningful; the rest are zero.
type Instruction struct {
	Kind Kind

	Rd, Rs1, Rs2 uint32
	Imm          int64 // already sign-extended to 64 bits at decode time
	Csr          uint16

	Len uint8 // encoded length in bytes: 2 (compressed) or 4

	Aq, Rl bool // atomic ordering flags; decoded, not semantically enforced (spec.md §4.4)
}
