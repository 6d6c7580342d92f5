// collaborators.go - external interfaces the kernel talks to
//
// Everything in this file is a boundary onto an out-of-scope collaborator:
// the CPU decoder/interpreter, the disk/CD-ROM image back-end, and the
// video/audio front-end. The kernel never implements the other side of
// these interfaces itself (spec §6).
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import "io"

// CPUBus is the set of slots the kernel's memory map and I/O-port map
// expose to the CPU collaborator. The CPU is the caller of Iter; the
// kernel never calls back into it except to raise/lower IRQ lines.
type CPUBus interface {
	MemRead8(addr uint32) uint8
	MemWrite8(addr uint32, v uint8)
	MemRead16(addr uint32) uint16
	MemWrite16(addr uint32, v uint16)
	MemRead32(addr uint32) uint32
	MemWrite32(addr uint32, v uint32)
	MemRead64(addr uint32) uint64

	PortRead8(port uint16) uint8
	PortWrite8(port uint16, v uint8)
	PortRead16(port uint16) uint16
	PortWrite16(port uint16, v uint16)
	PortRead32(port uint16) uint32
	PortWrite32(port uint16, v uint32)
}

// HDDBackend is the seekable-file collaborator a hard-disk IDE drive reads
// and writes through (spec §6).
type HDDBackend interface {
	io.ReadWriteSeeker
	io.Closer
	ReadOnly() bool
	SizeInBytes() int64
}

// CDROMBackend is the collaborator an ATAPI CD-ROM drive consumes for
// sector/subchannel/TOC access (spec §6). MSF addressing is minute:second:
// frame, frame in [0,75).
type CDROMBackend interface {
	io.Closer
	// Seek positions the read head at the given MSF address.
	Seek(m, s, f int) error
	// Read reads one 2352-byte raw sector (or less for a data-only read,
	// see ReadLogicalBlock). isAudio reports whether the sector holds CD-DA
	// audio data; stereo requests 2-channel de-interleaving.
	Read(buf []byte, isAudio *bool, stereo bool) (int, error)
	// ReadLogicalBlock reads the 2048-byte user-data area of the data
	// sector at the given LBA.
	ReadLogicalBlock(lba uint32, buf []byte) error
	ReadSubchannelQ(buf []byte) (crcOK bool, err error)
	// TOCTrackCount returns the number of tracks on the disc.
	TOCTrackCount() int
	// TOCTrack returns the starting LBA and control/ADR nibble for the
	// given (1-based) track; track == TOCLeadOutTrack requests the
	// lead-out address.
	TOCTrack(track int) (lba uint32, control uint8, ok bool)
	LastLBA() uint32
	Present() bool
}

// TOCLeadOutTrack is the sentinel track number TOCTrack accepts to mean
// "the lead-out address", per the Read TOC command (spec §4.6).
const TOCLeadOutTrack = 0xAA

// VideoSink receives completed frames from the (out-of-scope) SVGA
// collaborator; the kernel never calls it directly, but exposes a slot for
// the renderer to publish through.
type VideoSink func(pixels []byte, w, h, stride int)

// AudioSink receives one 256-stereo-sample (512 int16) buffer at 44.1 kHz
// from the (out-of-scope) sound collaborator.
type AudioSink func(samples [512]int16)

// MixAudio saturating-adds two int16 sample buffers of the same shape as
// AudioSink expects - used when the speaker and SB16 sources are both
// active in the same buffer (spec §6).
func MixAudio(a, b [512]int16) [512]int16 {
	var out [512]int16
	for i := range out {
		sum := int32(a[i]) + int32(b[i])
		switch {
		case sum > 32767:
			sum = 32767
		case sum < -32768:
			sum = -32768
		}
		out[i] = int16(sum)
	}
	return out
}
