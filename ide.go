// ide.go - the IDE channel: register protocol, drive selection, reset,
// and the shared PIO pacing scheduler ATA and ATAPI commands both use
// (spec §4.6).
//
// Grounded on machine_bus.go's region-dispatch idiom (generalised here to
// the eight command-block + two control-block registers) and on
// original_source/src/piix4_ide.c for the exact status-bit sequencing
// around a command.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import "log"

// Status register bits (spec §3, glossary).
const (
	StatusBSY uint8 = 0x80
	StatusRDY uint8 = 0x40
	StatusDF  uint8 = 0x20
	StatusSRV uint8 = 0x10
	StatusDRQ uint8 = 0x08
	StatusERR uint8 = 0x01
)

// Error register bits ATA commands set on abort (spec §4.6).
const (
	ErrABRT uint8 = 0x04
)

type driveKind int

const (
	driveNone driveKind = iota
	driveHDD
	driveCDROM
)

// ideDrive is one of a channel's two drive slots (spec §3).
type ideDrive struct {
	kind   driveKind
	hdd    *hddDrive
	cdrom  *cdromDrive
	status uint8
	err    uint8
}

func (d *ideDrive) resetSignature() {
	d.err = 0x01
	switch d.kind {
	case driveCDROM:
		d.status = 0
	default:
		d.status = StatusRDY
	}
}

// IDEChannel is one of the two IDE channels (0x1F0/0x3F6 or 0x170/0x376),
// owning its master/slave drives and the shared PIO buffer (spec §3,
// §4.6).
type IDEChannel struct {
	idx   int // 0 or 1
	irqLn int // 14 or 15

	drives [2]*ideDrive
	sel    int

	features, sectorCount         uint8
	lbaLo, lbaMid, lbaHi, headReg uint8

	nIEN       bool
	pendingIRQ bool

	pio pioBuffer

	pacingCycles int64
	pacingThen   func()

	ic   InterruptController
	warn *log.Logger
}

// NewIDEChannel builds an empty (both drives absent) channel.
func NewIDEChannel(idx, irqLine int, ic InterruptController, warn *log.Logger) *IDEChannel {
	c := &IDEChannel{idx: idx, irqLn: irqLine, ic: ic, warn: warn}
	c.drives[0] = &ideDrive{}
	c.drives[1] = &ideDrive{}
	c.Reset()
	return c
}

// AttachHDD installs a hard-disk drive at master (0) or slave (1).
func (c *IDEChannel) AttachHDD(slot int, d *hddDrive) {
	c.drives[slot] = &ideDrive{kind: driveHDD, hdd: d}
	c.drives[slot].resetSignature()
}

// AttachCDROM installs a CD-ROM drive at master (0) or slave (1).
func (c *IDEChannel) AttachCDROM(slot int, d *cdromDrive) {
	c.drives[slot] = &ideDrive{kind: driveCDROM, cdrom: d}
	c.drives[slot].resetSignature()
}

func (c *IDEChannel) selected() *ideDrive { return c.drives[c.sel] }

// Reset performs the channel reset SRST (or a full chipset reset)
// triggers: clears BSY, sets RDY on non-packet devices, cancels any
// pending transfer, and re-asserts the ATA signature on both drives
// (spec §4.6).
func (c *IDEChannel) Reset() {
	c.sel = 0
	c.features, c.sectorCount = 0, 1
	c.lbaLo, c.lbaMid, c.lbaHi, c.headReg = 0, 0, 0, 0
	c.nIEN = false
	c.pendingIRQ = false
	c.pio.reset()
	c.pacingCycles = 0
	c.pacingThen = nil
	for _, d := range c.drives {
		if d != nil {
			d.resetSignature()
		}
	}
	c.setIRQ(false)
}

func (c *IDEChannel) setIRQ(v bool) {
	c.pendingIRQ = v
	if !c.nIEN {
		c.ic.SetIRQ(c.irqLn, v)
	} else {
		c.ic.SetIRQ(c.irqLn, false)
	}
}

func (c *IDEChannel) raiseIRQ() {
	if !c.nIEN {
		c.setIRQ(true)
	} else {
		c.pendingIRQ = true
	}
}

// useLBA reports whether the Drive/Head register's LBA-enable bit (bit 6)
// is set.
func (c *IDEChannel) useLBA() bool { return c.headReg&0x40 != 0 }

func (c *IDEChannel) lba() uint32 {
	return uint32(c.lbaLo) | uint32(c.lbaMid)<<8 | uint32(c.lbaHi)<<16 | uint32(c.headReg&0x0F)<<24
}

func (c *IDEChannel) setLBA(l uint32) {
	c.lbaLo = uint8(l)
	c.lbaMid = uint8(l >> 8)
	c.lbaHi = uint8(l >> 16)
	c.headReg = c.headReg&0xF0 | uint8(l>>24)&0x0F
}

// abort finishes the current command with ABRT: sets Error/ERR, clears
// RDY/DRQ/BSY, and raises IRQ (spec §4.6 HDD error path; ATAPI uses
// abortWithSense instead).
func (c *IDEChannel) abort() {
	d := c.selected()
	d.err = ErrABRT
	d.status = d.status&^(StatusRDY|StatusDRQ|StatusBSY) | StatusERR
	c.raiseIRQ()
}

// --- register-block I/O (ports 0x1F0-0x1F7 / 0x170-0x177) ---

func (c *IDEChannel) ReadData16() uint16 {
	if !c.pio.drained() {
		v := c.pio.readNextWord()
		if c.pio.drained() {
			c.onPIODrained(false)
		}
		return v
	}
	return 0xFFFF
}

func (c *IDEChannel) WriteData16(v uint16) {
	if !c.pio.drained() {
		c.pio.writeNextWord(v)
		if c.pio.drained() {
			c.onPIODrained(true)
		}
	}
}

func (c *IDEChannel) ReadRegister(reg int) uint8 {
	d := c.selected()
	switch reg {
	case 1: // Error
		return d.err
	case 2: // Sector Count (also Interrupt Reason for ATAPI)
		return c.sectorCount
	case 3:
		return c.lbaLo
	case 4:
		return c.lbaMid
	case 5:
		return c.lbaHi
	case 6:
		return c.headReg | 0xA0
	case 7: // Status - reading clears pending IRQ (spec §4.6)
		c.setIRQ(false)
		return d.status
	}
	return 0xFF
}

func (c *IDEChannel) WriteRegister(reg int, v uint8) {
	switch reg {
	case 1:
		c.features = v
	case 2:
		c.sectorCount = v
	case 3:
		c.lbaLo = v
	case 4:
		c.lbaMid = v
	case 5:
		c.lbaHi = v
	case 6:
		c.headReg = v
		c.sel = int((v >> 4) & 1)
	case 7: // Command
		c.dispatchCommand(v)
	}
}

// ReadAltStatus/WriteDeviceControl implement the control block (port
// 0x3F6/0x376): Alt-Status must never clear the pending IRQ or any
// latched state (spec §4.6).
func (c *IDEChannel) ReadAltStatus() uint8 { return c.selected().status }

func (c *IDEChannel) WriteDeviceControl(v uint8) {
	c.nIEN = v&0x02 != 0
	if v&0x04 != 0 {
		c.Reset()
	}
}

// --- PIO pacing scheduler, driven by the kernel clock bus ---

// schedulePacing arranges for then to run after cycles CPU cycles elapse,
// while the channel advertises BSY (spec §4.6's "per-sector transfer
// pacing delay").
func (c *IDEChannel) schedulePacing(cycles int64, then func()) {
	if cycles < 1 {
		cycles = 1
	}
	c.pacingCycles = cycles
	c.pacingThen = then
}

// TightenHorizon implements Subsystem.
func (c *IDEChannel) TightenHorizon() int64 {
	if c.pacingThen != nil {
		return c.pacingCycles
	}
	return 0
}

// EndIter implements Subsystem.
func (c *IDEChannel) EndIter(cycles int64) {
	if c.pacingThen == nil {
		return
	}
	c.pacingCycles -= cycles
	if c.pacingCycles <= 0 {
		then := c.pacingThen
		c.pacingThen = nil
		then()
	}
}

// onPIODrained is called once the host has fully drained (read) or
// filled (write) the PIO buffer; it routes to the active operation's
// continuation.
func (c *IDEChannel) onPIODrained(wasWrite bool) {
	switch c.pio.op {
	case pioReadSectors:
		c.continueReadSectors()
	case pioWriteSectors:
		c.continueWriteSectors()
	case pioPacket:
		c.continuePacketDataOut()
	case pioPacketDataIn:
		c.continuePacketDataIn()
	case pioReadCDLogicalBlocks:
		c.continueReadCDLogicalBlocks()
	}
}
