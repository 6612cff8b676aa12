package onewiresim

import (
	"math"
	"sync"

	ow "periph.io/x/conn/v3/onewire"

	"weatherstation-go/drivers/onewire"
)

// Function commands understood by Probe.
const (
	cmdConvert     = 0x44
	cmdReadScratch = 0xBE
	cmdRecall      = 0xB8
)

// Probe simulates a DS18x20-style temperature probe. Family 0x26 devices
// expect a page byte after the read and recall commands.
type Probe struct {
	mu   sync.Mutex
	addr onewire.Address

	// Scratchpad bytes 0..7. Byte 8 is computed on read unless CorruptCRC
	// is set.
	Scratchpad [8]byte
	CorruptCRC bool
	// Silent makes the probe answer search and match but never drive data.
	Silent bool

	Conversions int
	Recalls     int

	pending byte // command waiting for a page byte
	out     []byte
}

// NewProbe returns a probe with ROM code addr and an all-zero scratchpad.
func NewProbe(addr onewire.Address) *Probe { return &Probe{addr: addr} }

func (p *Probe) ROM() onewire.Address { return p.addr }

func (p *Probe) Reset() {
	p.mu.Lock()
	p.pending, p.out = 0, nil
	p.mu.Unlock()
}

func (p *Probe) Function(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	paged := p.addr.Family() == 0x26

	if p.pending != 0 {
		cmd := p.pending
		p.pending = 0
		switch cmd {
		case cmdReadScratch:
			p.loadScratchpad()
		case cmdRecall:
			p.Recalls++
		}
		return
	}

	switch b {
	case cmdConvert:
		p.Conversions++
	case cmdReadScratch:
		if paged {
			p.pending = b
			return
		}
		p.loadScratchpad()
	case cmdRecall:
		if paged {
			p.pending = b
		}
	}
}

func (p *Probe) loadScratchpad() {
	if p.Silent {
		p.out = nil
		return
	}
	sp := make([]byte, 9)
	copy(sp, p.Scratchpad[:])
	sp[8] = ow.CalcCRC(sp[:8])
	if p.CorruptCRC {
		sp[8] ^= 0x5A
	}
	p.out = sp
}

func (p *Probe) Drive() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.out) == 0 {
		return 0xFF
	}
	b := p.out[0]
	p.out = p.out[1:]
	return b
}

// SetTemperature rewrites the scratchpad so the probe reports c degrees
// Celsius in its family's native format.
func (p *Probe) SetTemperature(c float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.addr.Family() {
	case 0x10:
		// Whole degrees in half-degree units, refined by COUNT_REMAIN with
		// COUNT_PER_C fixed at 16.
		t16 := int(math.Round(c * 16))
		whole := floorDiv(t16-12+15, 16)
		raw := int16(whole * 2)
		p.Scratchpad = [8]byte{byte(raw), byte(uint16(raw) >> 8), 0x4B, 0x46, 0xFF, 0xFF, byte(whole*16 + 12 - t16), 0x10}
	case 0x26:
		whole := int(math.Trunc(c))
		frac := int(math.Round(math.Abs(c-float64(whole)) * 32))
		if frac > 31 {
			frac = 31
		}
		p.Scratchpad = [8]byte{0x00, byte(frac << 3), byte(int8(whole)), 0x00, 0x00, 0x00, 0x00, 0x00}
	default:
		raw := int16(math.Round(c * 16))
		p.Scratchpad = [8]byte{byte(raw), byte(uint16(raw) >> 8), 0x4B, 0x46, 0x7F, 0xFF, 0x0C, 0x10}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Addr builds a ROM code from a family byte and a 48-bit serial, appending
// the CRC.
func Addr(family byte, serial uint64) onewire.Address {
	var a onewire.Address
	a[0] = family
	for i := 1; i <= 6; i++ {
		a[i] = byte(serial >> (8 * (i - 1)))
	}
	a[7] = ow.CalcCRC(a[:7])
	return a
}

var _ Device = (*Probe)(nil)
