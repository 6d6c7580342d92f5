// interrupts.go - narrow IRQ wiring from the timer and IDE channels to the
// (out-of-scope) interrupt controller collaborator.
//
// Grounded on spec.md §9's "narrow observer trait" design note and on
// debug_cpu_x86.go's one-method notification channel idiom.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

// InterruptController is the single entry point timers and IDE channels
// use to assert or deassert an IRQ line. Level-active per ATA/PIT
// convention: repeated calls with the same level are idempotent from the
// caller's perspective.
type InterruptController interface {
	SetIRQ(line int, asserted bool)
}

// nullInterruptController discards every IRQ - used when a PC is built
// without a CPU collaborator wired in yet (e.g. in unit tests that only
// exercise one subsystem).
type nullInterruptController struct{}

func (nullInterruptController) SetIRQ(int, bool) {}
