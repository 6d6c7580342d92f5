// memory.go - the physical memory map: RAM, BIOS window, PAM aliasing,
// and fallthrough to PCI memory handlers.
//
// Kept HOW, replaced WHAT from machine_bus.go: the teacher's MachineBus
// dispatches a flat 32 MB IE32 address space through a page-keyed
// IORegion map with little-endian byte decomposition for multi-width
// accesses. This file keeps that decomposition discipline but replaces
// the address space itself with the RAM/video-aperture/PAM/BIOS layout
// spec.md §4.2 describes.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

const (
	videoApertureBase = 0xA0000
	videoApertureLimit = 0xC0000
	lowMemLimit        = 0xA0000
	biosExtBase        = 0xFFF80000
	biosExtLimit       = 0xFFFE0000
	biosTopBase        = 0xFFFE0000
	addressSpaceLimit  = uint64(0x100000000)
)

// ValidRAMSizes lists the closed set of supported RAM sizes, in bytes
// (spec §3: {4,8,16,24,32,48,64,96,128,192,256} MiB).
var ValidRAMSizes = []int{
	4 << 20, 8 << 20, 16 << 20, 24 << 20, 32 << 20, 48 << 20,
	64 << 20, 96 << 20, 128 << 20, 192 << 20, 256 << 20,
}

func isValidRAMSize(n int) bool {
	for _, v := range ValidRAMSizes {
		if v == n {
			return true
		}
	}
	return false
}

// PCIMemHandler is a memory-mapped PCI device: the video aperture, an
// above-RAM PCI BAR, or similar. Handlers are consulted in registration
// order; the first to claim an address serves it (spec §4.2).
type PCIMemHandler interface {
	Claims(addr uint32) bool
	ReadMem8(addr uint32) uint8
	WriteMem8(addr uint32, v uint8)
}

// MemoryMap implements spec.md §4.2's physical address space: RAM below
// 0xA0000 and above 0x100000, a PAM-gated legacy window in between, and a
// replicated BIOS image visible both at its native top-of-memory location
// and through the 4 GiB ceiling aliases.
type MemoryMap struct {
	ram  []byte
	bios []byte

	pam *PAM

	pciHandlers []PCIMemHandler

	// codePageDirty marks 16-byte pages the JIT has translated; writes
	// into a dirty page should invalidate the cached translation. This is
	// an optimisation hint only - never a correctness condition (spec §3).
	codePageDirty []bool
	onCodeWrite   func(addr uint32)
}

// NewMemoryMap allocates RAM of ramSize bytes and wires up bios (kept by
// reference, read-only) and pam. ramSize must be one of ValidRAMSizes and
// len(bios) must be in [128 KiB, 1 MiB] and a multiple of 64, or an
// *InitError is returned.
func NewMemoryMap(ramSize int, bios []byte, pam *PAM) (*MemoryMap, error) {
	if !isValidRAMSize(ramSize) {
		return nil, newInitError(BadOptionROM, "ram size %d is not in the supported set", ramSize)
	}
	if len(bios) < 128*1024 || len(bios) > 1024*1024 || len(bios)%64 != 0 {
		return nil, newInitError(BadBios, "bios image size %d out of bounds", len(bios))
	}
	m := &MemoryMap{
		ram:           make([]byte, ramSize),
		bios:          bios,
		pam:           pam,
		codePageDirty: make([]bool, ramSize/16),
	}
	return m, nil
}

// SetCodeWriteHook installs the callback invoked when a write lands on a
// 16-byte page the JIT previously marked as translated.
func (m *MemoryMap) SetCodeWriteHook(f func(addr uint32)) { m.onCodeWrite = f }

// MarkCodePage flags the 16-byte page containing addr as JIT-translated.
func (m *MemoryMap) MarkCodePage(addr uint32) {
	page := int(addr) / 16
	if page >= 0 && page < len(m.codePageDirty) {
		m.codePageDirty[page] = true
	}
}

// RegisterPCIMemHandler adds a memory-mapped PCI device, consulted in
// registration order for any physical address not claimed by RAM/BIOS/PAM.
func (m *MemoryMap) RegisterPCIMemHandler(h PCIMemHandler) {
	m.pciHandlers = append(m.pciHandlers, h)
}

func (m *MemoryMap) dispatchPCIRead(addr uint32) uint8 {
	for _, h := range m.pciHandlers {
		if h.Claims(addr) {
			return h.ReadMem8(addr)
		}
	}
	return 0xFF
}

func (m *MemoryMap) dispatchPCIWrite(addr uint32, v uint8) {
	for _, h := range m.pciHandlers {
		if h.Claims(addr) {
			h.WriteMem8(addr, v)
			return
		}
	}
}

// biosByte returns the BIOS image byte that maps to the given physical
// address within one of the BIOS-visible windows.
func (m *MemoryMap) biosByte(addr uint32) uint8 {
	last128K := len(m.bios) - 128*1024
	switch {
	case addr >= pamBiosBase && addr < pamBiosLimit:
		off := last128K + int(addr-pamBiosBase)
		return m.bios[off]
	case addr >= biosTopBase:
		// Top 128 KiB replicated across 0xFFFE0000-0xFFFFFFFF.
		off := last128K + int((addr-biosTopBase)%(128*1024))
		return m.bios[off]
	case addr >= biosExtBase && addr < biosExtLimit:
		// 384 KiB extended window, present only when the image carries a
		// last-512-KiB block (spec §3).
		last512K := len(m.bios) - 512*1024
		if last512K < 0 {
			return 0xFF
		}
		off := last512K + int(addr-biosExtBase)
		if off < 0 || off >= len(m.bios) {
			return 0xFF
		}
		return m.bios[off]
	default:
		return 0xFF
	}
}

// Read8 implements spec.md §4.2's partition table for a single byte.
func (m *MemoryMap) Read8(addr uint32) uint8 {
	switch {
	case addr < lowMemLimit:
		return m.ram[addr]
	case addr >= videoApertureBase && addr < videoApertureLimit:
		return m.dispatchPCIRead(addr)
	case addr >= pamExtBase && addr < pamBiosLimit:
		if m.pam.ReadEnabled(addr) {
			return m.ram[addr]
		}
		if addr >= pamBiosBase {
			return m.biosByte(addr)
		}
		return m.dispatchPCIRead(addr)
	case addr >= pamBiosLimit && uint64(addr) < uint64(len(m.ram)):
		return m.ram[addr]
	case addr >= biosExtBase && addr < biosExtLimit:
		return m.biosByte(addr)
	case addr >= biosTopBase:
		return m.biosByte(addr)
	default:
		return m.dispatchPCIRead(addr)
	}
}

// Write8 implements spec.md §4.2's write-side partition, respecting PAM
// write-enable and invalidating JIT-cached translations on code writes.
func (m *MemoryMap) Write8(addr uint32, v uint8) {
	switch {
	case addr < lowMemLimit:
		m.writeRAM(addr, v)
	case addr >= videoApertureBase && addr < videoApertureLimit:
		m.dispatchPCIWrite(addr, v)
	case addr >= pamExtBase && addr < pamBiosLimit:
		if m.pam.WriteEnabled(addr) {
			m.writeRAM(addr, v)
		} else {
			m.dispatchPCIWrite(addr, v)
		}
	case addr >= pamBiosLimit && uint64(addr) < uint64(len(m.ram)):
		m.writeRAM(addr, v)
	default:
		m.dispatchPCIWrite(addr, v)
	}
}

func (m *MemoryMap) writeRAM(addr uint32, v uint8) {
	m.ram[addr] = v
	page := int(addr) / 16
	if page >= 0 && page < len(m.codePageDirty) && m.codePageDirty[page] {
		m.codePageDirty[page] = false
		if m.onCodeWrite != nil {
			m.onCodeWrite(addr)
		}
	}
}

// Read16/Read32/Read64 decompose into little-endian byte reads, per the
// invariant in spec.md §8 ("the returned value equals the little-endian
// composition of the per-byte reads").
func (m *MemoryMap) Read16(addr uint32) uint16 {
	lo := uint16(m.Read8(addr))
	hi := uint16(m.Read8(addr + 1))
	return lo | hi<<8
}

func (m *MemoryMap) Read32(addr uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.Read8(addr+i)) << (8 * i)
	}
	return v
}

func (m *MemoryMap) Read64(addr uint32) uint64 {
	var v uint64
	for i := uint32(0); i < 8; i++ {
		v |= uint64(m.Read8(addr+i)) << (8 * i)
	}
	return v
}

func (m *MemoryMap) Write16(addr uint32, v uint16) {
	m.Write8(addr, uint8(v))
	m.Write8(addr+1, uint8(v>>8))
}

func (m *MemoryMap) Write32(addr uint32, v uint32) {
	for i := uint32(0); i < 4; i++ {
		m.Write8(addr+i, uint8(v>>(8*i)))
	}
}

// Reset zeroes RAM. It does not touch the BIOS image or PAM state -
// those are reinitialised by the owning PC on a full reset.
func (m *MemoryMap) Reset() {
	for i := range m.ram {
		m.ram[i] = 0
	}
	for i := range m.codePageDirty {
		m.codePageDirty[i] = false
	}
}

// RAMSize returns the configured RAM size in bytes.
func (m *MemoryMap) RAMSize() int { return len(m.ram) }
