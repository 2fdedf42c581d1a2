package hart

import "github.com/rvcore/rvemu/mmu"

// loadReserved implements lr.w/lr.d: reads size bytes from addr and arms
// the reservation. Grounded on _teacher_ref/fast/vm.go's LR case (addr ==
// getLoadReservation() gate on the following sc).
func (h *Hart) loadReserved(addr uint64, size int) uint64 {
	pa, err := h.translate(addr, mmu.Read)
	if err != nil {
		panic(err)
	}
	v := h.mem.ReadUint(pa, size)
	h.reservationValid = true
	h.reservationAddr = addr
	return signExtendSize(v, size)
}

// storeConditional implements sc.w/sc.d: returns 0 (success) and performs
// the store only if the reservation is still armed on this exact address;
// returns 1 (failure) and performs no store otherwise. The reservation is
// always cleared afterward, matching the teacher's setLoadReservation(0)
// on every sc regardless of outcome.
func (h *Hart) storeConditional(addr uint64, size int, value uint64) uint64 {
	defer func() { h.reservationValid = false }()
	if !h.reservationValid || h.reservationAddr != addr {
		return 1
	}
	pa, err := h.translate(addr, mmu.Write)
	if err != nil {
		panic(err)
	}
	h.mem.WriteUint(pa, size, value)
	return 0
}

// amoRMW performs one atomic read-modify-write: rawApply computes the new
// raw (zero-extended) memory contents from the current raw contents and
// rs2's value, and the sign-extended pre-operation value is returned for
// rd, per amoKind's dispatch table (decode/decode.go's amoKind mirrors
// this operation set 1:1 with the opcode field).
func (h *Hart) amoRMW(addr uint64, size int, value uint64, rawApply func(oldRaw, value uint64) uint64) uint64 {
	pa, err := h.translate(addr, mmu.Write)
	if err != nil {
		panic(err)
	}
	oldRaw := h.mem.ReadUint(pa, size)
	newRaw := rawApply(oldRaw, value)
	h.mem.WriteUint(pa, size, newRaw)
	h.reservationValid = false
	return signExtendSize(oldRaw, size)
}

func signExtendSize(v uint64, size int) uint64 {
	switch size {
	case 4:
		return uint64(int64(int32(uint32(v))))
	default:
		return v
	}
}
