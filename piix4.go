// piix4.go - 82371AB (PIIX4) south-bridge PCI functions (ISA bridge, IDE,
// USB, power management), plus the fixed ISA-range ports PIIX4 owns
// directly: fast A20/reset (0x92), reset control (0xCF9), and the
// CMOS/RTC NVRAM index/data pair (0x70/0x71) (spec §4.3, SPEC_FULL §3.1).
//
// Grounded on original_source/src/piix4.c for the VID:DID block and the
// reset-control bit layout.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

const cmosSize = 128

// PIIX4 is the south-bridge: four PCI configuration functions plus the
// fixed-port logic a real PIIX4 hangs directly off its ISA bus (spec
// §4.3).
type PIIX4 struct {
	isa *ConfigSpace
	ide *ConfigSpace
	usb *ConfigSpace
	pm  *ConfigSpace

	cmos      [cmosSize]byte
	cmosIndex uint8

	fastA20      uint8
	resetControl uint8

	onReset func()
}

// NewPIIX4 builds the four south-bridge PCI functions (spec §4.3).
func NewPIIX4(onReset func()) *PIIX4 {
	p := &PIIX4{onReset: onReset}

	p.isa = NewConfigSpace("PIIX4 ISA bridge")
	p.isa.SetVendorDevice(pciVendorIntel, didPIIX4ISA)
	p.isa.SetClass(0x06010000)

	p.ide = NewConfigSpace("PIIX4 IDE")
	p.ide.SetVendorDevice(pciVendorIntel, didPIIX4IDE)
	p.ide.SetClass(0x01018000) // IDE controller, bus-master capable
	p.ide.SetRawByte(0x09, 0x80)

	p.usb = NewConfigSpace("PIIX4 USB")
	p.usb.SetVendorDevice(pciVendorIntel, didPIIX4USB)
	p.usb.SetClass(0x0C030000)

	p.pm = NewConfigSpace("PIIX4 Power Management")
	p.pm.SetVendorDevice(pciVendorIntel, didPIIX4PM)
	p.pm.SetClass(0x06800000)

	// CMOS byte 0x0D (status D) reads back with bit7 set on every power-on
	// per the original RTC, indicating valid battery-backed data.
	p.cmos[0x0D] = 0x80
	// CMOS byte 0x14 is the equipment byte a BIOS reads at boot: no floppy
	// drives installed (bit0 clear, bits 7-6 zero), math coprocessor
	// present (bit1 set), EGA/VGA initial video mode (bits 5-4 zero).
	p.cmos[0x14] = 0x02
	return p
}

// RegisterFunctions installs the four functions at PCI device 1,
// functions 0-3, the conventional PIIX4 slot (spec §4.3, matching
// original_source/src/mtxc.c:2398's "case 1: // PIIX4").
func (p *PIIX4) RegisterFunctions(router *PCIRouter) {
	router.RegisterFunction(0, 1, 0, p.isa)
	router.RegisterFunction(0, 1, 1, p.ide)
	router.RegisterFunction(0, 1, 2, p.usb)
	router.RegisterFunction(0, 1, 3, p.pm)
}

// SetIDEHDDType seeds the CMOS shadow's classic HDD-type byte (0x12,
// nibble per drive; 0xF means "see extended type byte", but since this
// simulator doesn't model a BIOS drive-type table, a fixed non-zero
// value just marks "drive present") - supplemented per SPEC_FULL §3.1.
func (p *PIIX4) SetIDEHDDType(drive int, present bool) {
	var nibble uint8
	if present {
		nibble = 0xF
	}
	if drive == 0 {
		p.cmos[0x12] = p.cmos[0x12]&0x0F | nibble<<4
	} else {
		p.cmos[0x12] = p.cmos[0x12]&0xF0 | nibble
	}
}

// ReadCMOS/WriteCMOS implement ports 0x70 (index, write-only on real
// hardware but readable here for simplicity) and 0x71 (data). No
// date/time counting is modelled (spec SPEC_FULL §3.1 Non-goal).
func (p *PIIX4) ReadCMOS(port uint16) uint8 {
	if port == 0x70 {
		return p.cmosIndex & 0x7F
	}
	return p.cmos[p.cmosIndex%cmosSize]
}

func (p *PIIX4) WriteCMOS(port uint16, v uint8) {
	if port == 0x70 {
		p.cmosIndex = v & 0x7F
		return
	}
	p.cmos[p.cmosIndex%cmosSize] = v
}

// ReadFastA20/WriteFastA20 implement port 0x92: bit1 is the A20 gate,
// bit0 is a fast-reset strobe (spec §4.3).
func (p *PIIX4) ReadFastA20() uint8 { return p.fastA20 }

func (p *PIIX4) WriteFastA20(v uint8) {
	rising := v&0x01 != 0 && p.fastA20&0x01 == 0
	p.fastA20 = v & 0x02 // bit0 never latches; it is a strobe
	if rising && p.onReset != nil {
		p.onReset()
	}
}

// ReadResetControl/WriteResetControl implement port 0xCF9: a rising
// edge on bit2 triggers a hard reset (spec §8 testable scenario).
func (p *PIIX4) ReadResetControl() uint8 { return p.resetControl }

func (p *PIIX4) WriteResetControl(v uint8) {
	rising := v&0x04 != 0 && p.resetControl&0x04 == 0
	p.resetControl = v
	if rising && p.onReset != nil {
		p.onReset()
	}
}
