// Package hart implements the RISC-V hardware thread: register file,
// program counter, CSR file, privilege level, and the fetch-decode-execute
// step loop. Grounded on _teacher_ref/fast/vm.go's Step function and state
// layout, generalised from asterisc's flat unprivileged model to the
// privileged, paged model other_examples/tinyrange-cc__cpu.go demonstrates.
package hart

import (
	"fmt"

	"github.com/rvcore/rvemu/decode"
	"github.com/rvcore/rvemu/memory"
	"github.com/rvcore/rvemu/mmu"
	"github.com/rvcore/rvemu/riscv"
)

// Option configures a Hart at construction time.
type Option func(*Hart)

// WithXLEN sets the register width: 32 or 64. Defaults to 64.
func WithXLEN(xlen int) Option {
	return func(h *Hart) { h.XLEN = xlen }
}

// WithEntry sets the initial program counter.
func WithEntry(pc uint64) Option {
	return func(h *Hart) { h.PC = pc }
}

// WithStackPointer seeds x2 (sp) at construction, before any program runs.
func WithStackPointer(sp uint64) Option {
	return func(h *Hart) { h.Regs[riscv.RegSP] = sp }
}

// WithMisalignedLoadsAllowed controls whether loads/stores whose address is
// not naturally aligned succeed (default) or raise a misaligned-access
// trap. memory.Memory tolerates unaligned access transparently, so the
// default favors permissiveness; set false to model stricter hardware.
func WithMisalignedLoadsAllowed(allowed bool) Option {
	return func(h *Hart) { h.allowMisaligned = allowed }
}

// Hart is one RISC-V hardware thread of execution.
type Hart struct {
	Regs [32]uint64
	PC   uint64
	XLEN int

	Priv riscv.Priv
	csr  csrFile

	mem *memory.Memory
	mmu *mmu.MMU

	reservationValid bool
	reservationAddr  uint64

	Halted   bool
	ExitCode uint64

	allowMisaligned bool

	Trace func(pc uint64, ins decode.Instruction)
}

// New constructs a Hart bound to mem, in Machine mode, with a fresh CSR
// file and TLB.
func New(mem *memory.Memory, opts ...Option) *Hart {
	h := &Hart{
		XLEN:            64,
		Priv:            riscv.Machine,
		mem:             mem,
		mmu:             mmu.New(mem),
		allowMisaligned: true,
	}
	h.csr = newCSRFile()
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hart) reg(i uint32) uint64 {
	if i == 0 {
		return 0
	}
	return h.Regs[i]
}

func (h *Hart) setReg(i uint32, v uint64) {
	if i == 0 {
		return
	}
	if h.XLEN == 32 {
		v = uint64(uint32(v))
	}
	h.Regs[i] = v
}

// maskXLEN truncates a value to XLEN bits (zero-extended into the 64-bit
// container), so RV32 arithmetic doesn't leak stale high bits between
// steps. Signed interpretation of an already-masked register value goes
// through execute.go's signExtendXLEN instead.
func (h *Hart) maskXLEN(v uint64) uint64 {
	if h.XLEN == 32 {
		return uint64(uint32(v))
	}
	return v
}

func (h *Hart) satp() uint64  { return h.csr.read(riscv.CsrSatp) }
func (h *Hart) mstatus() uint64 { return h.csr.read(riscv.CsrMstatus) }

// fetch reads the instruction word at pc, choosing the compressed or
// standard decoder based on the low two bits, exactly as the ISA manual
// specifies (bits [1:0] != 11 means a 16-bit compressed instruction).
func (h *Hart) fetch(pc uint64) (decode.Instruction, error) {
	pa, err := h.translate(pc, mmu.Execute)
	if err != nil {
		return decode.Instruction{}, err
	}
	half := uint16(h.mem.ReadUint(pa, 2))
	if half&0x3 != 0x3 {
		ins, err := decode.DecodeCompressed(half, h.XLEN)
		if err != nil {
			return decode.Instruction{}, &trapError{cause: riscv.CauseIllegalInstr, tval: uint64(half)}
		}
		return ins, nil
	}
	pa2, err := h.translate(pc+2, mmu.Execute)
	if err != nil {
		return decode.Instruction{}, err
	}
	w := uint32(half) | uint32(h.mem.ReadUint(pa2, 2))<<16
	ins, err := decode.Decode(w)
	if err != nil {
		return decode.Instruction{}, &trapError{cause: riscv.CauseIllegalInstr, tval: uint64(w)}
	}
	return ins, nil
}

func (h *Hart) translate(va uint64, intent mmu.Intent) (uint64, error) {
	pa, err := h.mmu.Translate(va, intent, h.Priv, h.satp(), h.mstatus(), h.XLEN)
	if err != nil {
		if f, ok := err.(*mmu.Fault); ok {
			return 0, &trapError{cause: f.Cause, tval: f.Addr}
		}
		return 0, err
	}
	return pa, nil
}

// Step fetches, decodes, and executes exactly one instruction, delivering
// a trap (and returning nil) if the instruction faults. It returns a
// non-nil error only for conditions the emulator itself cannot recover
// from, mirroring the teacher's panic/recover Step boundary but converted
// to an explicit error return instead of a panic (Design Notes: privileged
// execution needs to keep running after a guest exception).
func (h *Hart) Step() (err error) {
	if h.Halted {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			if te, ok := r.(*trapError); ok {
				h.raiseTrap(te.cause, te.tval)
				h.checkHalt()
				return
			}
			err = fmt.Errorf("hart: unrecoverable panic: %v", r)
		}
	}()

	ins, ferr := h.fetch(h.PC)
	if ferr != nil {
		if te, ok := ferr.(*trapError); ok {
			h.raiseTrap(te.cause, te.tval)
			h.checkHalt()
			return nil
		}
		return ferr
	}
	if h.Trace != nil {
		h.Trace(h.PC, ins)
	}
	h.execute(ins)
	h.checkHalt()
	return nil
}

// checkHalt implements the loader's halt convention: ra (and mtvec, for an
// unhandled machine trap) start at zero, so a normal return from main or a
// breakpoint with no installed handler both land the PC at address 0. That
// is the one halt condition this emulator recognises; anything else keeps
// stepping forever, which is the caller's (e.g. a step budget) problem.
func (h *Hart) checkHalt() {
	if h.PC != 0 {
		return
	}
	h.Halted = true
	h.ExitCode = h.maskXLEN(h.reg(riscv.RegA0))
}

// trapError is the internal signal used to unwind from deep in execute()
// to Step()'s recover, carrying the cause/tval the trap handler needs.
type trapError struct {
	cause uint64
	tval  uint64
}

func (e *trapError) Error() string {
	return fmt.Sprintf("trap %s (tval=%#x)", riscv.CauseName(e.cause), e.tval)
}

func (h *Hart) trap(cause, tval uint64) {
	panic(&trapError{cause: cause, tval: tval})
}
