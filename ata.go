// ata.go - the ATA (hard-disk) command set: IDENTIFY DEVICE, READ/WRITE
// SECTORS, NOP, and the command dispatcher shared with atapi.go (spec
// §4.6).
//
// Grounded on original_source/src/piix4_ide.c for the exact status/IRQ
// sequencing around each command, and on machine_bus.go's big command
// switch idiom for the dispatcher shape.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import (
	"fmt"
	"io"
)

const (
	sectorSize           = 512
	sectorPacingCycles   = 512 // fixed per-sector service delay (spec §4.6)
	sectorsPerTrackCHS   = 63
)

// hddDrive is an attached ATA hard disk (spec §3).
type hddDrive struct {
	backend HDDBackend

	cylinders, heads uint16
	sectors          uint16 // always 63
	totalSectors     uint32

	model, serial string
}

// newHDDDrive derives a CHS geometry from the backend's byte size,
// scaling heads up (16, 32, 64, 128, 255) until the cylinder count fits
// in 1024, clamping to 1024/255/63 for images too large to address in
// CHS at all (spec §8 scenario 3's geometry-derivation property).
func newHDDDrive(backend HDDBackend, model, serial string) (*hddDrive, error) {
	size := backend.SizeInBytes()
	if size < sectorSize {
		return nil, fmt.Errorf("hdd backend too small: %d bytes", size)
	}
	total := uint32(size / sectorSize)

	var heads uint16 = 255
	var cyl uint32 = total / (255 * sectorsPerTrackCHS)
	for _, h := range []uint16{16, 32, 64, 128, 255} {
		c := total / (uint32(h) * sectorsPerTrackCHS)
		if c <= 1024 {
			heads = h
			cyl = c
			break
		}
	}
	if cyl > 1024 {
		cyl = 1024
	}

	return &hddDrive{
		backend:      backend,
		cylinders:    uint16(cyl),
		heads:        heads,
		sectors:      sectorsPerTrackCHS,
		totalSectors: total,
		model:        model,
		serial:       serial,
	}, nil
}

func (d *hddDrive) chsToLBA(cyl uint16, head uint8, sector uint8) uint32 {
	if sector == 0 {
		sector = 1
	}
	return (uint32(cyl)*uint32(d.heads)+uint32(head))*sectorsPerTrackCHS + uint32(sector-1)
}

// effectiveLBA resolves the channel's address-tuple registers into a
// flat sector number, honouring the LBA-enable bit (spec §4.6).
func (c *IDEChannel) effectiveLBA(d *hddDrive) uint32 {
	if c.useLBA() {
		return c.lba()
	}
	cyl := uint16(c.lbaMid) | uint16(c.lbaHi)<<8
	head := c.headReg & 0x0F
	return d.chsToLBA(cyl, head, c.lbaLo)
}

// dispatchCommand routes a Command-register write to the matching ATA
// or ATAPI handler (spec §4.6).
func (c *IDEChannel) dispatchCommand(cmd uint8) {
	d := c.selected()
	if d.kind == driveNone {
		// No drive in this slot: the command block floats; nothing
		// responds, matching real hardware's behaviour for an absent
		// drive select.
		return
	}

	switch cmd {
	case 0x00: // NOP - always aborts per the ATA command set.
		c.abort()
	case 0xEC: // IDENTIFY DEVICE
		if d.kind != driveHDD {
			c.abort()
			return
		}
		c.cmdIdentifyDevice(d)
	case 0xA1: // IDENTIFY PACKET DEVICE (supplemented, spec SPEC_FULL §3.1)
		if d.kind != driveCDROM {
			c.abort()
			return
		}
		c.cmdIdentifyPacketDevice(d)
	case 0x20, 0x21: // READ SECTORS (with/without retry)
		if d.kind != driveHDD {
			c.abort()
			return
		}
		c.cmdReadSectors(d)
	case 0x30, 0x31: // WRITE SECTORS (with/without retry)
		if d.kind != driveHDD {
			c.abort()
			return
		}
		c.cmdWriteSectors(d)
	case 0x90: // EXECUTE DEVICE DIAGNOSTIC (supplemented, spec SPEC_FULL §3.1)
		c.cmdExecuteDiagnostic(d)
	case 0xA0: // PACKET
		if d.kind != driveCDROM {
			c.abort()
			return
		}
		c.cmdPacket(d)
	default:
		c.abort()
	}
}

// cmdExecuteDiagnostic posts the diagnostic result code into the Error
// register of drive 0 and reselects drive 0, per the ATA-3 diagnostic
// protocol (spec SPEC_FULL §3.1).
func (c *IDEChannel) cmdExecuteDiagnostic(d *ideDrive) {
	c.sel = 0
	master := c.drives[0]
	master.err = 0x01 // device 0 passed, no device 1 present/detected
	master.status = master.status&^(StatusBSY|StatusDRQ) | StatusRDY
}

// cmdIdentifyDevice executes IDENTIFY DEVICE (0xEC): builds the 512-byte
// identify sector and presents it through the PIO buffer in a single
// shot (spec §4.6, §8 testable property).
func (c *IDEChannel) cmdIdentifyDevice(d *ideDrive) {
	buf := make([]byte, sectorSize)
	putStr := func(off, length int, s string) {
		for i := 0; i < length; i += 2 {
			var b0, b1 byte = ' ', ' '
			if i < len(s) {
				b0 = s[i]
			}
			if i+1 < len(s) {
				b1 = s[i+1]
			}
			// ATA IDENTIFY strings are byte-swapped within each word.
			buf[off+i] = b1
			buf[off+i+1] = b0
		}
	}
	put16 := func(word int, v uint16) {
		buf[word*2] = byte(v)
		buf[word*2+1] = byte(v >> 8)
	}

	hd := d.hdd
	put16(0, 0x0040) // ATA device, fixed
	put16(1, hd.cylinders)
	put16(3, hd.heads)
	put16(6, hd.sectors)
	putStr(20, 20, hd.serial)
	putStr(54, 8, "")
	put16(47, 256) // max sectors per multiple-mode block
	putStr(54, 40, hd.model)
	put16(49, 0x0200) // LBA supported
	put16(53, 0x0001) // words 54-58 (current CHS) are valid
	put16(54, hd.cylinders)
	put16(55, hd.heads)
	put16(56, hd.sectors)
	cur := uint32(hd.cylinders) * uint32(hd.heads) * uint32(hd.sectors)
	put16(57, uint16(cur))
	put16(58, uint16(cur>>16))
	put16(60, uint16(hd.totalSectors))
	put16(61, uint16(hd.totalSectors>>16))

	c.pio.loadBytes(buf)
	d.status = d.status&^(StatusBSY|StatusERR) | StatusRDY | StatusDRQ
	c.raiseIRQ()
}

// cmdIdentifyPacketDevice executes IDENTIFY PACKET DEVICE (0xA1), the
// ATAPI counterpart of IDENTIFY DEVICE (spec SPEC_FULL §3.1).
func (c *IDEChannel) cmdIdentifyPacketDevice(d *ideDrive) {
	buf := make([]byte, sectorSize)
	put16 := func(word int, v uint16) {
		buf[word*2] = byte(v)
		buf[word*2+1] = byte(v >> 8)
	}
	putStr := func(off, length int, s string) {
		for i := 0; i < length; i += 2 {
			var b0, b1 byte = ' ', ' '
			if i < len(s) {
				b0 = s[i]
			}
			if i+1 < len(s) {
				b1 = s[i+1]
			}
			buf[off+i] = b1
			buf[off+i+1] = b0
		}
	}
	put16(0, 0x8580) // ATAPI, removable, CD-ROM device type (5), 12-byte packet
	putStr(20, 20, d.cdrom.serial)
	putStr(54, 40, d.cdrom.model)
	put16(49, 0x0200)

	c.pio.loadBytes(buf)
	d.status = d.status&^(StatusBSY|StatusERR) | StatusRDY | StatusDRQ
	c.raiseIRQ()
}

// cmdReadSectors executes READ SECTORS (0x20/0x21): a sector-count-0-
// means-256 run of sector reads, each gated by a fixed service delay
// (spec §4.6).
func (c *IDEChannel) cmdReadSectors(d *ideDrive) {
	count := uint32(c.sectorCount)
	if count == 0 {
		count = 256
	}
	lba := c.effectiveLBA(d.hdd)

	d.status = d.status&^(StatusDRQ|StatusERR) | StatusBSY
	c.pio.op = pioReadSectors
	c.pio.curSector = lba
	c.pio.endSector = lba + count

	c.schedulePacing(sectorPacingCycles, func() { c.readOneSector(d) })
}

func (c *IDEChannel) readOneSector(d *ideDrive) {
	buf := make([]byte, sectorSize)
	off := int64(c.pio.curSector) * sectorSize
	if _, err := d.hdd.backend.Seek(off, io.SeekStart); err != nil {
		c.abort()
		return
	}
	if _, err := io.ReadFull(d.hdd.backend, buf); err != nil {
		c.abort()
		return
	}
	c.pio.loadBytes(buf)
	d.status = d.status&^StatusBSY | StatusRDY | StatusDRQ
	c.raiseIRQ()
}

// continueReadSectors is invoked once the host has drained one sector's
// worth of words from the PIO buffer.
func (c *IDEChannel) continueReadSectors() {
	d := c.selected()
	c.pio.curSector++
	c.sectorCount--
	if c.pio.curSector >= c.pio.endSector {
		d.status &^= StatusDRQ
		c.pio.op = pioNormal
		return
	}
	d.status = d.status&^StatusDRQ | StatusBSY
	c.schedulePacing(sectorPacingCycles, func() { c.readOneSector(d) })
}

// cmdWriteSectors executes WRITE SECTORS (0x30/0x31): the first sector's
// worth of DRQ is asserted immediately, since the device has nothing to
// fetch before it can accept host data (spec §4.6).
func (c *IDEChannel) cmdWriteSectors(d *ideDrive) {
	count := uint32(c.sectorCount)
	if count == 0 {
		count = 256
	}
	lba := c.effectiveLBA(d.hdd)

	d.status = d.status&^(StatusBSY|StatusERR) | StatusRDY | StatusDRQ
	c.pio.op = pioWriteSectors
	c.pio.curSector = lba
	c.pio.endSector = lba + count
	c.pio.begin, c.pio.end = 0, sectorSize/2
}

// continueWriteSectors is invoked once the host has filled one sector's
// worth of words into the PIO buffer.
func (c *IDEChannel) continueWriteSectors() {
	d := c.selected()
	d.status = d.status&^StatusDRQ | StatusBSY
	c.schedulePacing(sectorPacingCycles, func() { c.writeOneSector(d) })
}

func (c *IDEChannel) writeOneSector(d *ideDrive) {
	buf := c.pio.bytesFrom(0, sectorSize)
	off := int64(c.pio.curSector) * sectorSize
	if _, err := d.hdd.backend.Seek(off, io.SeekStart); err != nil {
		c.abort()
		return
	}
	if _, err := d.hdd.backend.Write(buf); err != nil {
		c.abort()
		return
	}
	c.pio.curSector++
	c.sectorCount--
	if c.pio.curSector >= c.pio.endSector {
		d.status = d.status&^StatusBSY | StatusRDY
		c.pio.op = pioNormal
		c.raiseIRQ()
		return
	}
	c.pio.begin, c.pio.end = 0, sectorSize/2
	d.status = d.status&^StatusBSY | StatusRDY | StatusDRQ
	c.raiseIRQ()
}
