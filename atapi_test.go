package pc

import "testing"

func newTestATAPIChannel(nBlocks int) (*IDEChannel, *fakeIC, *memCDROMBackend) {
	ic := newFakeIC()
	c := NewIDEChannel(1, 15, ic, nil)
	backend := newMemCDROMBackend(nBlocks)
	c.AttachCDROM(0, newCDROMDrive(backend, "MEMUPC CD-ROM BASIC", "0001"))
	return c, ic, backend
}

func sendPacket(c *IDEChannel, cmd []byte) {
	c.WriteRegister(7, 0xA0) // PACKET
	full := make([]byte, 12)
	copy(full, cmd)
	for i := 0; i < 12; i += 2 {
		c.WriteData16(uint16(full[i]) | uint16(full[i+1])<<8)
	}
}

func TestATAPIInquiryReturnsVendorProduct(t *testing.T) {
	c, _, _ := newTestATAPIChannel(4)
	sendPacket(c, []byte{0x12, 0, 0, 0, 48, 0})

	var resp []byte
	for i := 0; i < 24; i++ {
		w := c.ReadData16()
		resp = append(resp, byte(w), byte(w>>8))
	}
	if string(resp[8:16]) != "MEMUPC  " {
		t.Fatalf("expected vendor id 'MEMUPC  ', got %q", resp[8:16])
	}
}

func TestATAPITestUnitReadyNotReadyWhenAbsent(t *testing.T) {
	c, _, backend := newTestATAPIChannel(4)
	backend.present = false

	sendPacket(c, []byte{0x00})

	if c.drives[0].status&StatusERR == 0 {
		t.Fatalf("expected CHECK CONDITION when medium absent")
	}
	if c.drives[0].cdrom.sense[2] != senseNotReady {
		t.Fatalf("expected sense key NOT_READY, got 0x%02X", c.drives[0].cdrom.sense[2])
	}
}

func TestATAPISenseKeyMirroredInErrorRegister(t *testing.T) {
	c, _, backend := newTestATAPIChannel(4)
	backend.present = false
	sendPacket(c, []byte{0x00})

	wantKey := c.drives[0].cdrom.sense[2]
	if c.drives[0].err>>4 != wantKey {
		t.Fatalf("expected error register upper nibble to equal sense key 0x%X, got 0x%X",
			wantKey, c.drives[0].err>>4)
	}
}

func TestATAPIRead10ReturnsLogicalBlockData(t *testing.T) {
	c, ic, backend := newTestATAPIChannel(4)
	_ = backend

	// READ(10), LBA=1, transfer length=1 block.
	sendPacket(c, []byte{0x28, 0, 0, 0, 0, 1, 0, 0, 1, 0})
	c.EndIter(sectorPacingCycles)

	if c.drives[0].status&StatusDRQ == 0 {
		t.Fatalf("expected DRQ once the logical-block read completes")
	}
	if !ic.asserted[15] {
		t.Fatalf("expected IRQ15 asserted")
	}
	first := c.ReadData16()
	if byte(first) != byte(1+0) {
		t.Fatalf("expected first byte of LBA 1 to be 1, got %d", byte(first))
	}
}

func TestATAPIReadTOCListsOneDataTrack(t *testing.T) {
	c, _, _ := newTestATAPIChannel(4)
	sendPacket(c, []byte{0x43, 0, 0, 0, 0, 0, 1, 0, 64, 0})

	w0 := c.ReadData16() // TOC data length
	_ = w0
	w1 := c.ReadData16() // first/last track numbers
	if byte(w1) != 1 || byte(w1>>8) != 1 {
		t.Fatalf("expected first=last=track 1, got 0x%04X", w1)
	}
}
