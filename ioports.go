// ioports.go - the ISA/PCI I/O-port address space: fixed legacy port
// assignments fanning out to the PIT, IDE channels, and PCI config
// mechanism, then a BAR-relative lookup across installed PCI devices
// (spec §4.4).
//
// Grounded on machine_bus.go's IORegion dispatch-map idiom, generalised
// from memory-mapped regions to I/O ports.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import "log"

// PCIIOHandler lets a PCI function claim a range of the I/O-port space
// relative to one of its BARs (spec §4.4).
type PCIIOHandler interface {
	ClaimsIO(port uint16) bool
	ReadIO8(port uint16) uint8
	WriteIO8(port uint16, v uint8)
}

// IOPortMap is the ISA/PCI I/O-port fan-out (spec §4.4).
type IOPortMap struct {
	pit   *PIT
	pci   *PCIRouter
	piix4 *PIIX4
	ide   [2]*IDEChannel

	ioHandlers []PCIIOHandler

	warn *log.Logger
}

// NewIOPortMap wires the fixed legacy devices; PCI I/O-BAR handlers are
// added afterward with RegisterIOHandler.
func NewIOPortMap(pit *PIT, pci *PCIRouter, piix4 *PIIX4, ide0, ide1 *IDEChannel, warn *log.Logger) *IOPortMap {
	return &IOPortMap{pit: pit, pci: pci, piix4: piix4, ide: [2]*IDEChannel{ide0, ide1}, warn: warn}
}

// RegisterIOHandler installs a PCI function's I/O-BAR claim, checked
// after every fixed legacy port (spec §4.4: "installed PCI devices in
// program order").
func (m *IOPortMap) RegisterIOHandler(h PCIIOHandler) {
	m.ioHandlers = append(m.ioHandlers, h)
}

func ideChannelFor(port uint16) (idx int, isControl bool, reg int, ok bool) {
	switch {
	case port >= 0x1F0 && port <= 0x1F7:
		return 0, false, int(port - 0x1F0), true
	case port == 0x3F6:
		return 0, true, 0, true
	case port >= 0x170 && port <= 0x177:
		return 1, false, int(port - 0x170), true
	case port == 0x376:
		return 1, true, 0, true
	}
	return 0, false, 0, false
}

// Read8 services an IN instruction.
func (m *IOPortMap) Read8(port uint16) uint8 {
	if idx, isControl, reg, ok := ideChannelFor(port); ok {
		c := m.ide[idx]
		if isControl {
			return c.ReadAltStatus()
		}
		if reg == 0 {
			return uint8(c.ReadData16())
		}
		return c.ReadRegister(reg)
	}

	switch port {
	case 0x40, 0x41, 0x42:
		return m.pit.ReadData(int(port - 0x40))
	case 0x61:
		return m.pit.ReadPort61()
	case 0x70, 0x71:
		return m.piix4.ReadCMOS(port)
	case 0x92:
		return m.piix4.ReadFastA20()
	case 0xCF9:
		return m.piix4.ReadResetControl()
	case 0xCF8, 0xCFA, 0xCFB:
		return uint8(m.pci.ReadConfigAddr() >> (8 * (port - 0xCF8)))
	case 0xCFC, 0xCFD, 0xCFE, 0xCFF:
		return m.pci.ReadConfigData8(port - 0xCFC)
	case 0x20, 0x21, 0xA0, 0xA1, 0x4D0, 0x4D1:
		return 0xFF // PIC/ELCR stub: no programmable interrupt controller modelled
	case 0x60, 0x64:
		return 0xFF // keyboard/PS2 controller: external collaborator
	case 0x3F4, 0x3F5:
		return 0xFF // floppy controller: external collaborator
	}

	for _, h := range m.ioHandlers {
		if h.ClaimsIO(port) {
			return h.ReadIO8(port)
		}
	}
	return 0xFF
}

// Write8 services an OUT instruction.
func (m *IOPortMap) Write8(port uint16, v uint8) {
	if idx, isControl, reg, ok := ideChannelFor(port); ok {
		c := m.ide[idx]
		if isControl {
			c.WriteDeviceControl(v)
			return
		}
		if reg == 0 {
			c.WriteData16(uint16(v))
			return
		}
		c.WriteRegister(reg, v)
		return
	}

	switch port {
	case 0x40, 0x41, 0x42:
		m.pit.WriteData(int(port-0x40), v)
		return
	case 0x43:
		m.pit.WriteControl(v)
		return
	case 0x61:
		m.pit.WritePort61(v)
		return
	case 0x70, 0x71:
		m.piix4.WriteCMOS(port, v)
		return
	case 0x92:
		m.piix4.WriteFastA20(v)
		return
	case 0xCF9:
		m.piix4.WriteResetControl(v)
		return
	case 0xCF8, 0xCFA, 0xCFB:
		cur := m.pci.ReadConfigAddr()
		shift := uint(8 * (port - 0xCF8))
		cur = cur&^(0xFF<<shift) | uint32(v)<<shift
		m.pci.WriteConfigAddr(cur)
		return
	case 0xCFC, 0xCFD, 0xCFE, 0xCFF:
		m.pci.WriteConfigData8(port-0xCFC, v)
		return
	case 0x20, 0x21, 0xA0, 0xA1, 0x4D0, 0x4D1, 0x60, 0x64, 0x3F4, 0x3F5:
		return // stub: external collaborator, or unmodelled PIC programming
	}

	for _, h := range m.ioHandlers {
		if h.ClaimsIO(port) {
			h.WriteIO8(port, v)
			return
		}
	}
}

// Read16 and Write16 decompose into two byte accesses, matching the
// kernel's little-endian invariant (spec §8).
func (m *IOPortMap) Read16(port uint16) uint16 {
	return uint16(m.Read8(port)) | uint16(m.Read8(port+1))<<8
}

func (m *IOPortMap) Write16(port uint16, v uint16) {
	m.Write8(port, uint8(v))
	m.Write8(port+1, uint8(v>>8))
}

// Read32 and Write32 special-case the PCI config-address and config-data
// ports, which the router implements as whole 32-bit accesses, and
// otherwise decompose byte-wise.
func (m *IOPortMap) Read32(port uint16) uint32 {
	if port == 0xCF8 {
		return m.pci.ReadConfigAddr()
	}
	if port == 0xCFC {
		return m.pci.ReadConfigData32(0)
	}
	return uint32(m.Read16(port)) | uint32(m.Read16(port+2))<<16
}

func (m *IOPortMap) Write32(port uint16, v uint32) {
	if port == 0xCF8 {
		m.pci.WriteConfigAddr(v)
		return
	}
	if port == 0xCFC {
		m.pci.WriteConfigData32(0, v)
		return
	}
	m.Write16(port, uint16(v))
	m.Write16(port+2, uint16(v>>16))
}
