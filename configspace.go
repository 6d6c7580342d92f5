// configspace.go - shared 256-byte PCI configuration-space storage,
// embedded by every PCIFunction implementation (mtxc.go, piix4.go).
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import "encoding/binary"

// ConfigSpace is a plain 256-byte little-endian register file with
// optional per-register write interception - the common substrate every
// PCI function in this simulator builds on.
type ConfigSpace struct {
	name  string
	bytes [256]byte
	// onWrite8, if set, is consulted before a byte write is committed; it
	// returns the value that should actually be stored (letting a function
	// mask read-only bits or redirect to a sub-register like PAM).
	onWrite8 func(reg int, v uint8) uint8
}

func NewConfigSpace(name string) *ConfigSpace {
	return &ConfigSpace{name: name}
}

func (c *ConfigSpace) Name() string { return c.name }

func (c *ConfigSpace) SetVendorDevice(vendor, device uint16) {
	binary.LittleEndian.PutUint16(c.bytes[0x00:], vendor)
	binary.LittleEndian.PutUint16(c.bytes[0x02:], device)
}

func (c *ConfigSpace) SetClass(classCode uint32) {
	binary.LittleEndian.PutUint32(c.bytes[0x08:], classCode)
}

func (c *ConfigSpace) SetSubsystem(vendor, device uint16) {
	binary.LittleEndian.PutUint16(c.bytes[0x2C:], vendor)
	binary.LittleEndian.PutUint16(c.bytes[0x2E:], device)
}

func (c *ConfigSpace) ReadConfig8(reg int) uint8 {
	if reg < 0 || reg > 255 {
		return 0xFF
	}
	return c.bytes[reg]
}

func (c *ConfigSpace) WriteConfig8(reg int, v uint8) {
	if reg < 0 || reg > 255 {
		return
	}
	if c.onWrite8 != nil {
		v = c.onWrite8(reg, v)
	}
	c.bytes[reg] = v
}

func (c *ConfigSpace) ReadConfig16(reg int) uint16 {
	return uint16(c.ReadConfig8(reg)) | uint16(c.ReadConfig8(reg+1))<<8
}

func (c *ConfigSpace) WriteConfig16(reg int, v uint16) {
	c.WriteConfig8(reg, uint8(v))
	c.WriteConfig8(reg+1, uint8(v>>8))
}

func (c *ConfigSpace) ReadConfig32(reg int) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(c.ReadConfig8(reg+i)) << (8 * i)
	}
	return v
}

func (c *ConfigSpace) WriteConfig32(reg int, v uint32) {
	for i := 0; i < 4; i++ {
		c.WriteConfig8(reg+i, uint8(v>>(8*i)))
	}
}

// RawByte returns the stored byte as last written, with no read
// interception (an owner such as MTXC may override ReadConfig8 for
// registers whose authoritative state lives elsewhere).
func (c *ConfigSpace) RawByte(reg int) uint8 { return c.bytes[reg] }

// SetRawByte stores a byte directly, bypassing onWrite8 - used to mirror
// externally-owned state (e.g. PAM) back into the config space for reads.
func (c *ConfigSpace) SetRawByte(reg int, v uint8) { c.bytes[reg] = v }
