// pam.go - MTXC Programmable Attribute Map (PCI config offsets 0x59-0x5F)
//
// Grounded on original_source/src/mtxc.c's PAM register bit layout: byte
// 0x59 carries a single read/write pair for the whole BIOS window
// (0xF0000-0xFFFFF); bytes 0x5A-0x5F each carry two read/write pairs (low
// nibble for the low 16 KiB half of their 32 KiB block, high nibble for
// the high half), covering 0xC0000-0xEFFFF in six 32 KiB blocks.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

const (
	pamBiosBase  = 0xF0000
	pamBiosLimit = 0x100000
	pamExtBase   = 0xC0000
	pamExtLimit  = 0xF0000
	pamHalfSize  = 0x4000 // 16 KiB
	pamBlockSize = 0x8000 // 32 KiB, two halves
	pamRegCount  = 7
)

// pamPair is one (read-from-RAM?, write-to-RAM?) toggle.
type pamPair struct {
	read  bool
	write bool
}

// PAM is the Programmable Attribute Map: seven registers steering reads
// and writes of the legacy 0xC0000-0xFFFFF window between RAM and PCI
// (spec §3, §4.2). Register 0 covers the BIOS window as a single pair;
// registers 1-6 each carry a low/high pair for their 32 KiB block.
type PAM struct {
	bios [1]pamPair
	ext  [6][2]pamPair // [block][0]=low half, [block][1]=high half

	// invalidate is called whenever a read-enable bit toggles, so that
	// cached JIT translations of the now-differently-sourced range can be
	// dropped. Never a correctness requirement on its own (spec §3).
	invalidate func(startAddr, endAddr uint32)
}

// NewPAM returns a PAM with every read/write bit cleared, per spec's
// reset state: "reads and writes go to PCI / BIOS".
func NewPAM(invalidate func(start, end uint32)) *PAM {
	if invalidate == nil {
		invalidate = func(uint32, uint32) {}
	}
	return &PAM{invalidate: invalidate}
}

// lookup resolves an address in [0xC0000, 0x100000) to its governing pair
// and the byte range it covers, or ok=false if addr is outside the window.
func (p *PAM) lookup(addr uint32) (pair *pamPair, rangeStart, rangeEnd uint32, ok bool) {
	if addr >= pamBiosBase && addr < pamBiosLimit {
		return &p.bios[0], pamBiosBase, pamBiosLimit, true
	}
	if addr >= pamExtBase && addr < pamExtLimit {
		off := addr - pamExtBase
		block := off / pamBlockSize
		half := (off % pamBlockSize) / pamHalfSize
		start := pamExtBase + block*pamBlockSize + half*pamHalfSize
		return &p.ext[block][half], start, start + pamHalfSize, true
	}
	return nil, 0, 0, false
}

// ReadEnabled reports whether addr should be satisfied from RAM on a read.
func (p *PAM) ReadEnabled(addr uint32) bool {
	pair, _, _, ok := p.lookup(addr)
	return ok && pair.read
}

// WriteEnabled reports whether addr should be satisfied into RAM on a write.
func (p *PAM) WriteEnabled(addr uint32) bool {
	pair, _, _, ok := p.lookup(addr)
	return ok && pair.write
}

// ReadConfig8 reads one of the seven PAM configuration bytes (reg in
// [0,6], corresponding to MTXC config offsets 0x59-0x5F).
func (p *PAM) ReadConfig8(reg int) byte {
	if reg == 0 {
		return packPamByte(p.bios[0], pamPair{})
	}
	if reg < 1 || reg > 6 {
		return 0xFF
	}
	block := p.ext[reg-1]
	return packPamByte(block[0], block[1])
}

// WriteConfig8 writes one of the seven PAM configuration bytes, invoking
// the invalidation hook for every half-region whose read-enable bit
// changed.
func (p *PAM) WriteConfig8(reg int, val byte) {
	if reg == 0 {
		before := p.bios[0]
		p.bios[0] = unpackPamLow(val)
		if before.read != p.bios[0].read {
			p.invalidate(pamBiosBase, pamBiosLimit)
		}
		return
	}
	if reg < 1 || reg > 6 {
		return
	}
	beforeLo, beforeHi := p.ext[reg-1][0], p.ext[reg-1][1]
	lo, hi := unpackPamLow(val), unpackPamHigh(val)
	p.ext[reg-1][0], p.ext[reg-1][1] = lo, hi

	base := uint32(pamExtBase) + uint32(reg-1)*pamBlockSize
	if beforeLo.read != lo.read {
		p.invalidate(base, base+pamHalfSize)
	}
	if beforeHi.read != hi.read {
		p.invalidate(base+pamHalfSize, base+pamBlockSize)
	}
}

func unpackPamLow(val byte) pamPair {
	return pamPair{read: val&0x10 != 0, write: val&0x20 != 0}
}

func unpackPamHigh(val byte) pamPair {
	return pamPair{read: val&0x01 != 0, write: val&0x02 != 0}
}

func packPamByte(lo, hi pamPair) byte {
	var v byte
	if lo.read {
		v |= 0x10
	}
	if lo.write {
		v |= 0x20
	}
	if hi.read {
		v |= 0x01
	}
	if hi.write {
		v |= 0x02
	}
	return v
}
