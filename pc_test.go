package pc

import "testing"

func testBIOS() []byte { return make([]byte, 128*1024) }

func TestInitBuildsAMachine(t *testing.T) {
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.Mem.RAMSize() != 16<<20 {
		t.Fatalf("expected 16 MiB RAM, got %d", p.Mem.RAMSize())
	}
}

func TestInitRejectsBadRAMSize(t *testing.T) {
	_, err := Init(PCConfig{RAMSizeMiB: 17, BIOSImage: testBIOS()})
	if err == nil {
		t.Fatalf("expected error for 17 MiB RAM")
	}
}

func TestPIIX4ResetControlTriggersReset(t *testing.T) {
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	p.Mem.Write8(0x10, 0xFF)
	p.Ports.Write8(0xCF9, 0x04) // rising edge on bit2
	if p.Mem.Read8(0x10) != 0 {
		t.Fatalf("expected reset-control write to clear RAM")
	}
}

func TestPortIOReachesPIT(t *testing.T) {
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	p.Ports.Write8(0x43, 0x34) // channel 0, mode 2
	p.Ports.Write8(0x40, 0x64)
	p.Ports.Write8(0x40, 0x00)
	if ch := p.PIT.channels[0]; ch.mode != 2 || ch.initCount != 0x64 {
		t.Fatalf("expected channel 0 in mode 2 with init count 0x64, got mode %d count 0x%04X", ch.mode, ch.initCount)
	}
	if got := p.PIT.ReadPort61(); got&0x01 != 0 {
		t.Fatalf("expected channel-2 gate still low")
	}
}

func TestPIIX4ReachableViaConfAddrAtDeviceOne(t *testing.T) {
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	// bus 0, dev 1, func 0 (PIIX4 ISA bridge), register 0 (vendor/device).
	confaddr := uint32(1)<<31 | uint32(1)<<11 | uint32(0)<<8
	p.Ports.Write32(0xCF8, confaddr)
	if got := p.Ports.Read32(0xCFC); uint16(got) != pciVendorIntel {
		t.Fatalf("expected PIIX4 ISA bridge vendor ID at dev 1 func 0, got 0x%08X", got)
	}
}

func TestMTXCPamReachableViaConfAddrConfData(t *testing.T) {
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	// bus 0, dev 0, func 0 (MTXC), register 0x59 (PAM0) - byte offset 0x59
	// is dword index 0x16 with low-byte lane 1.
	confaddr := uint32(1)<<31 | uint32(0x16)<<2
	p.Ports.Write32(0xCF8, confaddr)
	p.Ports.Write8(0xCFD, 0x30) // CFC+1 = byte lane 1 = offset 0x59
	if got := p.PAM.ReadConfig8(0); got != 0x30 {
		t.Fatalf("expected PAM register 0 to observe the CONFADD/CONFDATA write, got 0x%02X", got)
	}
}

func TestCDROMAttachedOnSecondaryChannel(t *testing.T) {
	backend := newMemCDROMBackend(4)
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz, CDROM: backend})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.IDE[1].drives[0].kind != driveCDROM {
		t.Fatalf("expected CD-ROM attached to secondary channel master")
	}
}

func TestCloseTearsDownBackendsConcurrently(t *testing.T) {
	hdd := newMemHDDBackend(16 << 20)
	cdrom := newMemCDROMBackend(4)
	p, err := Init(PCConfig{RAMSizeMiB: 16, BIOSImage: testBIOS(), CPUHz: timerClockHz, HDD: hdd, CDROM: cdrom})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !cdrom.closed {
		t.Fatalf("expected CD-ROM backend closed")
	}
}
