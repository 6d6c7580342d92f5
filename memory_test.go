package pc

import "testing"

func newTestMemory(t *testing.T) (*MemoryMap, *PAM) {
	t.Helper()
	pam := NewPAM(nil)
	bios := make([]byte, 128*1024)
	for i := range bios {
		bios[i] = byte(i)
	}
	m, err := NewMemoryMap(4<<20, bios, pam)
	if err != nil {
		t.Fatalf("NewMemoryMap: %v", err)
	}
	return m, pam
}

func TestMemoryMapRejectsBadRAMSize(t *testing.T) {
	pam := NewPAM(nil)
	_, err := NewMemoryMap(3<<20, make([]byte, 128*1024), pam)
	if err == nil {
		t.Fatalf("expected error for unsupported RAM size")
	}
	ie, ok := err.(*InitError)
	if !ok || ie.Kind != BadOptionROM {
		t.Fatalf("expected BadOptionROM InitError, got %v", err)
	}
}

func TestMemoryMapLowRAMReadWrite(t *testing.T) {
	m, _ := newTestMemory(t)
	m.Write32(0x1000, 0xDEADBEEF)
	if got := m.Read32(0x1000); got != 0xDEADBEEF {
		t.Fatalf("expected 0xDEADBEEF, got 0x%08X", got)
	}
	if got := m.Read8(0x1000); got != 0xEF {
		t.Fatalf("expected little-endian low byte 0xEF, got 0x%02X", got)
	}
}

func TestMemoryMapPAMGatedWindow(t *testing.T) {
	m, pam := newTestMemory(t)

	// Read-disabled: falls through to the BIOS image.
	got := m.Read8(0xF0000)
	want := m.biosByte(0xF0000)
	if got != want {
		t.Fatalf("expected BIOS byte 0x%02X when PAM read-disabled, got 0x%02X", want, got)
	}

	pam.WriteConfig8(0, 0x30)
	m.Write8(0xF0000, 0x42)
	if got := m.Read8(0xF0000); got != 0x42 {
		t.Fatalf("expected RAM-backed value 0x42 once PAM enabled, got 0x%02X", got)
	}
}

func TestMemoryMapResetZeroesRAM(t *testing.T) {
	m, _ := newTestMemory(t)
	m.Write8(0x10, 0xFF)
	m.Reset()
	if got := m.Read8(0x10); got != 0 {
		t.Fatalf("expected RAM cleared after Reset, got 0x%02X", got)
	}
}

