// mtxc.go - 82439TX (MTXC) north-bridge PCI function: identification plus
// the PAM register shadow (spec §4.3, §6).
//
// Grounded on original_source/src/mtxc.c for the VID:DID and PAM register
// offsets.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

const (
	pciVendorIntel = 0x8086
	didMTXC        = 0x7100
	didPIIX4ISA    = 0x7110
	didPIIX4IDE    = 0x7111
	didPIIX4USB    = 0x7112
	didPIIX4PM     = 0x7113

	// Subsystem ID surfaced only when QEMU-compatibility is enabled
	// (spec §6).
	qemuSubsystemVendor = 0x1AF4
	qemuSubsystemDevice = 0x1100

	pamRegBase = 0x59 // config offsets 0x59-0x5F
)

// MTXC is the 82439TX north-bridge PCI configuration-space function.
type MTXC struct {
	*ConfigSpace
	pam *PAM
}

// NewMTXC wires a config space to the given PAM, installing the
// write-intercept that routes 0x59-0x5F into pam and mirrors plain reads.
func NewMTXC(pam *PAM, qemuCompat bool) *MTXC {
	cs := NewConfigSpace("MTXC")
	cs.SetVendorDevice(pciVendorIntel, didMTXC)
	cs.SetClass(0x06000000) // host bridge
	if qemuCompat {
		cs.SetSubsystem(qemuSubsystemVendor, qemuSubsystemDevice)
	}
	m := &MTXC{ConfigSpace: cs, pam: pam}
	cs.onWrite8 = m.onWrite8
	for i := 0; i < pamRegCount; i++ {
		cs.SetRawByte(pamRegBase+i, pam.ReadConfig8(i))
	}
	return m
}

func (m *MTXC) onWrite8(reg int, v uint8) uint8 {
	if reg >= pamRegBase && reg < pamRegBase+pamRegCount {
		m.pam.WriteConfig8(reg-pamRegBase, v)
		return m.pam.ReadConfig8(reg - pamRegBase)
	}
	return v
}

// ReadConfig8 overrides the embedded ConfigSpace for the PAM window so
// reads always reflect the PAM's own authoritative state.
func (m *MTXC) ReadConfig8(reg int) uint8 {
	if reg >= pamRegBase && reg < pamRegBase+pamRegCount {
		return m.pam.ReadConfig8(reg - pamRegBase)
	}
	return m.ConfigSpace.ReadConfig8(reg)
}

func (m *MTXC) ReadConfig16(reg int) uint16 {
	return uint16(m.ReadConfig8(reg)) | uint16(m.ReadConfig8(reg+1))<<8
}

func (m *MTXC) ReadConfig32(reg int) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(m.ReadConfig8(reg+i)) << (8 * i)
	}
	return v
}
