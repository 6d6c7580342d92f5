package pc

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// memHDDBackend is an in-memory HDDBackend used across the ATA/ATAPI
// test files.
type memHDDBackend struct {
	data []byte
	pos  int64
}

func newMemHDDBackend(size int) *memHDDBackend {
	return &memHDDBackend{data: make([]byte, size)}
}

func (b *memHDDBackend) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *memHDDBackend) Write(p []byte) (int, error) {
	if b.pos+int64(len(p)) > int64(len(b.data)) {
		return 0, errors.New("write past end of backend")
	}
	n := copy(b.data[b.pos:], p)
	b.pos += int64(n)
	return n, nil
}

func (b *memHDDBackend) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = b.pos
	case io.SeekEnd:
		base = int64(len(b.data))
	}
	b.pos = base + offset
	return b.pos, nil
}

func (b *memHDDBackend) Close() error       { return nil }
func (b *memHDDBackend) ReadOnly() bool     { return false }
func (b *memHDDBackend) SizeInBytes() int64 { return int64(len(b.data)) }

func mustHDDDrive(t *testing.T, size int) *hddDrive {
	t.Helper()
	d, err := newHDDDrive(newMemHDDBackend(size), "TEST DISK", "000000000001")
	if err != nil {
		t.Fatalf("newHDDDrive: %v", err)
	}
	return d
}

// memCDROMBackend is a minimal in-memory CDROMBackend: one data track
// with a handful of fabricated logical blocks.
type memCDROMBackend struct {
	blocks  [][cdBlockSize]byte
	present bool
	closed  bool
}

func newMemCDROMBackend(nBlocks int) *memCDROMBackend {
	b := &memCDROMBackend{blocks: make([][cdBlockSize]byte, nBlocks), present: true}
	for i := range b.blocks {
		for j := range b.blocks[i] {
			b.blocks[i][j] = byte(i + j)
		}
	}
	return b
}

func (b *memCDROMBackend) Close() error { b.closed = true; return nil }

func (b *memCDROMBackend) Seek(m, s, f int) error { return nil }

func (b *memCDROMBackend) Read(buf []byte, isAudio *bool, stereo bool) (int, error) {
	if isAudio != nil {
		*isAudio = false
	}
	return copy(buf, bytes.Repeat([]byte{0}, len(buf))), nil
}

func (b *memCDROMBackend) ReadLogicalBlock(lba uint32, buf []byte) error {
	if int(lba) >= len(b.blocks) {
		return errors.New("lba out of range")
	}
	copy(buf, b.blocks[lba][:])
	return nil
}

func (b *memCDROMBackend) ReadSubchannelQ(buf []byte) (bool, error) { return false, nil }

func (b *memCDROMBackend) TOCTrackCount() int { return 1 }

func (b *memCDROMBackend) TOCTrack(track int) (uint32, uint8, bool) {
	if track == 1 {
		return 0, 0x04, true // data track
	}
	return 0, 0, false
}

func (b *memCDROMBackend) LastLBA() uint32 { return uint32(len(b.blocks)) }

func (b *memCDROMBackend) Present() bool { return b.present }
