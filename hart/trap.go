package hart

import "github.com/rvcore/rvemu/riscv"

// raiseTrap delivers a synchronous exception, choosing Supervisor or
// Machine as the target level per medeleg, then performing the save/jump
// sequence the privileged spec defines: xepc <- pc, xcause <- cause,
// xtval <- tval, xstatus.xPIE <- xstatus.xIE, xstatus.xIE <- 0,
// xstatus.xPP <- current privilege, pc <- xtvec.
//
// Grounded on other_examples/tinyrange-cc__execute.go's handleMret/
// handleSret (the reverse half of this sequence); the teacher
// (_teacher_ref) has no privileged traps at all, since asterisc never
// leaves machine-equivalent mode.
func (h *Hart) raiseTrap(cause, tval uint64) {
	h.reservationValid = false
	delegated := h.Priv != riscv.Machine && h.csr.read(riscv.CsrMedeleg)&(1<<cause) != 0

	if delegated {
		status := h.csr.values[riscv.CsrMstatus]
		spp := uint64(0)
		if h.Priv == riscv.Supervisor {
			spp = 1
		}
		status = setBit(status, riscv.StatusSPIE, status&riscv.StatusSIE != 0)
		status = clearBit(status, riscv.StatusSIE)
		status = setBit(status, riscv.StatusSPP, spp != 0)
		h.csr.values[riscv.CsrMstatus] = status

		h.csr.values[riscv.CsrSepc] = h.PC
		h.csr.values[riscv.CsrScause] = cause
		h.csr.values[riscv.CsrStval] = tval
		h.Priv = riscv.Supervisor
		h.PC = h.csr.values[riscv.CsrStvec] &^ 0x3
		return
	}

	status := h.csr.values[riscv.CsrMstatus]
	mpp := uint64(h.Priv) << riscv.StatusMPPShift
	status = setBit(status, riscv.StatusMPIE, status&riscv.StatusMIE != 0)
	status = clearBit(status, riscv.StatusMIE)
	status = (status &^ riscv.StatusMPPMask) | mpp
	h.csr.values[riscv.CsrMstatus] = status

	h.csr.values[riscv.CsrMepc] = h.PC
	h.csr.values[riscv.CsrMcause] = cause
	h.csr.values[riscv.CsrMtval] = tval
	h.Priv = riscv.Machine
	h.PC = h.csr.values[riscv.CsrMtvec] &^ 0x3
}

func (h *Hart) mret() {
	if h.Priv != riscv.Machine {
		h.trap(riscv.CauseIllegalInstr, 0)
	}
	h.reservationValid = false
	status := h.csr.values[riscv.CsrMstatus]
	mpp := riscv.Priv((status & riscv.StatusMPPMask) >> riscv.StatusMPPShift)
	status = setBit(status, riscv.StatusMIE, status&riscv.StatusMPIE != 0)
	status = setBit(status, riscv.StatusMPIE, true)
	status &^= riscv.StatusMPPMask
	h.csr.values[riscv.CsrMstatus] = status
	h.Priv = mpp
	h.PC = h.csr.values[riscv.CsrMepc]
}

func (h *Hart) sret() {
	if h.Priv == riscv.User {
		h.trap(riscv.CauseIllegalInstr, 0)
	}
	h.reservationValid = false
	status := h.csr.values[riscv.CsrMstatus]
	spp := riscv.User
	if status&riscv.StatusSPP != 0 {
		spp = riscv.Supervisor
	}
	status = setBit(status, riscv.StatusSIE, status&riscv.StatusSPIE != 0)
	status = setBit(status, riscv.StatusSPIE, true)
	status = clearBit(status, riscv.StatusSPP)
	h.csr.values[riscv.CsrMstatus] = status
	h.Priv = spp
	h.PC = h.csr.values[riscv.CsrSepc]
}

func (h *Hart) ecall() {
	switch h.Priv {
	case riscv.User:
		h.trap(riscv.CauseEcallFromU, 0)
	case riscv.Supervisor:
		h.trap(riscv.CauseEcallFromS, 0)
	case riscv.Machine:
		h.trap(riscv.CauseEcallFromM, 0)
	}
}

func setBit(v, mask uint64, set bool) uint64 {
	if set {
		return v | mask
	}
	return v &^ mask
}

func clearBit(v, mask uint64) uint64 { return v &^ mask }
