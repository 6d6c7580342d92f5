// pc.go - top-level kernel: wires the clock bus, physical memory map,
// PCI configuration router, chipset functions, timer, and IDE channels
// into one simulated machine (spec §1, §9).
//
// Grounded on runtime_ipc.go's goroutine-based lifecycle idiom for
// Close's concurrent backend teardown, and on machine_bus.go for the
// overall composition-root shape.
//
// (c) 2024-2026 the pcsim authors
// License: GPLv3 or later

package pc

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"
)

// PCConfig describes the machine to build (spec §1). Every field has a
// sane zero value except RAMSizeMiB and BIOSImage, which must be valid
// per NewMemoryMap's rules.
type PCConfig struct {
	RAMSizeMiB int
	BIOSImage  []byte
	CPUHz      int64

	HDD   HDDBackend
	CDROM CDROMBackend

	InterruptController InterruptController
	Logger              *log.Logger

	QEMUCompat bool
}

// PC is the assembled kernel: every [MODULE] the specification names,
// composed into one machine a CPU collaborator can drive (spec §9).
type PC struct {
	cfg PCConfig

	Clock *ClockBus
	Mem   *MemoryMap
	PAM   *PAM
	PCI   *PCIRouter
	MTXC  *MTXC
	PIIX4 *PIIX4
	PIT   *PIT
	IDE   [2]*IDEChannel
	Ports *IOPortMap

	ic  InterruptController
	log *log.Logger
}

// Init builds a PC from cfg, returning an *InitError wrapped in the
// standard error interface if the configuration cannot be realized
// (spec §4.1).
func Init(cfg PCConfig) (*PC, error) {
	if cfg.CPUHz <= 0 {
		cfg.CPUHz = 200_000_000 // a plausible late-90s Pentium-class clock
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "pcsim: ", log.LstdFlags)
	}
	ic := cfg.InterruptController
	if ic == nil {
		ic = nullInterruptController{}
	}

	p := &PC{cfg: cfg, ic: ic, log: cfg.Logger}

	p.Clock = NewClockBus()

	p.PAM = NewPAM(p.invalidateCodeRange)

	mem, err := NewMemoryMap(cfg.RAMSizeMiB<<20, cfg.BIOSImage, p.PAM)
	if err != nil {
		return nil, err
	}
	p.Mem = mem

	p.PCI = NewPCIRouter(p.log)
	p.MTXC = NewMTXC(p.PAM, cfg.QEMUCompat)
	p.PCI.RegisterFunction(0, 0, 0, p.MTXC)

	p.PIIX4 = NewPIIX4(p.Reset)
	p.PIIX4.RegisterFunctions(p.PCI)

	p.PIT = NewPIT(cfg.CPUHz, ic, p.fatal)
	p.Clock.Register(p.PIT)

	p.IDE[0] = NewIDEChannel(0, 14, ic, p.log)
	p.IDE[1] = NewIDEChannel(1, 15, ic, p.log)
	p.Clock.Register(p.IDE[0])
	p.Clock.Register(p.IDE[1])

	if cfg.HDD != nil {
		hdd, err := newHDDDrive(cfg.HDD, "HDD-ATA memuPC", "000000000001")
		if err != nil {
			return nil, newInitError(HddWrongSize, "%v", err)
		}
		p.IDE[0].AttachHDD(0, hdd)
	}
	p.PIIX4.SetIDEHDDType(0, cfg.HDD != nil)

	if cfg.CDROM != nil {
		cd := newCDROMDrive(cfg.CDROM, "MEMUPC CD-ROM BASIC", "0001")
		p.IDE[1].AttachCDROM(0, cd)
	}

	p.Ports = NewIOPortMap(p.PIT, p.PCI, p.PIIX4, p.IDE[0], p.IDE[1], p.log)

	return p, nil
}

// invalidateCodeRange is the PAM's code-invalidation callback: it marks
// every RAM page in [start,end) dirty so a JIT collaborator re-decodes
// it (spec §4.3, §9's "external collaborator" boundary).
func (p *PC) invalidateCodeRange(start, end uint32) {
	for addr := start; addr < end; addr += 16 {
		p.Mem.MarkCodePage(addr)
	}
}

// Reset zeroes RAM, clears every PAM register, clears the PCI CONFADD
// latch and resets both IDE channels (spec §4.1). The timer channels and
// the PIIX4 registers (CMOS, port 0x92, port 0xCF9) keep their current
// state.
func (p *PC) Reset() {
	for i := 0; i < pamRegCount; i++ {
		p.PAM.WriteConfig8(i, 0)
	}
	p.Mem.Reset()
	p.PCI.ResetConfigAddr()
	p.IDE[0].Reset()
	p.IDE[1].Reset()
}

// Iter runs the clock bus for one host iteration: step is called to
// advance the CPU collaborator by at most n cycles, and must return the
// number of cycles it actually consumed (spec §4.1, §9).
func (p *PC) Iter(budget int64, step func(n int64) int64) {
	p.Clock.Iter(budget, step)
}

// Close releases the attached HDD and CD-ROM backends concurrently.
func (p *PC) Close() error {
	var g errgroup.Group
	if p.cfg.HDD != nil {
		g.Go(p.cfg.HDD.Close)
	}
	if p.cfg.CDROM != nil {
		g.Go(p.cfg.CDROM.Close)
	}
	return g.Wait()
}

func (p *PC) warn(format string, args ...any) {
	p.log.Print("warn: " + fmt.Sprintf(format, args...))
}

func (p *PC) fatal(format string, args ...any) {
	p.log.Print("fatal: " + fmt.Sprintf(format, args...))
}
