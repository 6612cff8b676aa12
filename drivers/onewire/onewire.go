// Package onewire implements a 1-Wire bus master on top of a bit-level Line.
//
// The Line does the timing-critical work (reset pulse, read and write time
// slots); Bus layers bytes and ROM commands on top so the same code drives
// a bit-banged GPIO pin, a UART wired as a 1-Wire master, or a simulated
// network in tests. Bus also satisfies periph.io/x/conn/v3/onewire's
// BusSearcher, whose search walk and CRC it uses.
//
//	bus := onewire.New(line)
//	roms, err := bus.Devices()
//	_ = bus.Reset()
//	_ = bus.Select(roms[0])
//	_ = bus.WriteByte(0x44)
package onewire

import (
	"encoding/hex"

	ow "periph.io/x/conn/v3/onewire"

	"weatherstation-go/errcode"
)

// ROM commands.
const (
	CmdSearchROM = 0xF0
	CmdReadROM   = 0x33
	CmdMatchROM  = 0x55
	CmdSkipROM   = 0xCC
)

// Errors returned by the bus.
var (
	ErrNoPresence = &errcode.E{C: errcode.NoDevice, Op: "onewire", Msg: "no presence pulse"}
	ErrNoise      = &errcode.E{C: errcode.Error, Op: "onewire", Msg: "bus read-back mismatch"}
)

// Line is the bit-level transport.
type Line interface {
	// Reset issues a reset pulse and reports whether any device answered
	// with a presence pulse.
	Reset() (presence bool, err error)
	WriteBit(bit bool) error
	ReadBit() (bool, error)
}

// Address is a 64-bit ROM code as transmitted: family byte first, CRC last.
type Address [8]byte

// Family returns the family code (byte 0).
func (a Address) Family() byte { return a[0] }

// Valid reports whether byte 7 is the CRC-8 of bytes 0..6.
func (a Address) Valid() bool { return ow.CheckCRC(a[:]) }

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Bus is a 1-Wire master. It is not safe for concurrent use; callers
// serialise transactions.
type Bus struct {
	l Line
}

// New returns a master driving l.
func New(l Line) *Bus { return &Bus{l: l} }

// Reset resets the bus. ErrNoPresence is returned when nothing answers.
func (b *Bus) Reset() error {
	ok, err := b.l.Reset()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPresence
	}
	return nil
}

// WriteByte writes v LSB first.
func (b *Bus) WriteByte(v byte) error {
	for i := 0; i < 8; i++ {
		if err := b.l.WriteBit(v&(1<<i) != 0); err != nil {
			return err
		}
	}
	return nil
}

// ReadByte reads one byte LSB first.
func (b *Bus) ReadByte() (byte, error) {
	var v byte
	for i := 0; i < 8; i++ {
		bit, err := b.l.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit {
			v |= 1 << i
		}
	}
	return v, nil
}

// Write writes p in order.
func (b *Bus) Write(p ...byte) error {
	for _, v := range p {
		if err := b.WriteByte(v); err != nil {
			return err
		}
	}
	return nil
}

// Read fills p.
func (b *Bus) Read(p []byte) error {
	for i := range p {
		v, err := b.ReadByte()
		if err != nil {
			return err
		}
		p[i] = v
	}
	return nil
}

// Select addresses a single device (MATCH ROM). Call after Reset.
func (b *Bus) Select(a Address) error {
	if err := b.WriteByte(CmdMatchROM); err != nil {
		return err
	}
	return b.Write(a[:]...)
}

// Skip addresses every device at once (SKIP ROM). Call after Reset.
func (b *Bus) Skip() error { return b.WriteByte(CmdSkipROM) }
