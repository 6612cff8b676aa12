package max17043

import (
	"errors"
	"math"
	"testing"

	"tinygo.org/x/drivers"
)

// fakeI2C is a register file keyed by register address.
type fakeI2C struct {
	regs   map[byte][2]byte
	writes [][]byte
	addr   uint16
	err    error
}

var _ drivers.I2C = (*fakeI2C)(nil)

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addr = addr
	if f.err != nil {
		return f.err
	}
	if len(r) > 0 {
		v := f.regs[w[0]]
		copy(r, v[:])
		return nil
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	if len(w) == 3 {
		f.regs[w[0]] = [2]byte{w[1], w[2]}
	}
	return nil
}

func TestRead(t *testing.T) {
	bus := &fakeI2C{regs: map[byte][2]byte{
		regVCell: {0xCF, 0x80}, // 0xCF8 = 3320 * 1.25 mV = 4.15 V
		regSOC:   {0x57, 0x80}, // 87.5 %
	}}
	r, err := New(bus).Read()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.CellVolts-4.15) > 1e-9 {
		t.Fatalf("volts = %v, want 4.15", r.CellVolts)
	}
	if r.SoCPct != 87.5 {
		t.Fatalf("soc = %v, want 87.5", r.SoCPct)
	}
	if bus.addr != Address {
		t.Fatalf("addressed %#x, want %#x", bus.addr, Address)
	}
}

func TestQuickStartAndSleep(t *testing.T) {
	bus := &fakeI2C{regs: map[byte][2]byte{regConfig: {0x97, 0x1C}}}
	d := New(bus)
	if err := d.QuickStart(); err != nil {
		t.Fatal(err)
	}
	if got := bus.writes[0]; got[0] != regMode || got[1] != 0x40 || got[2] != 0x00 {
		t.Fatalf("quick-start write = % x", got)
	}
	if err := d.Sleep(true); err != nil {
		t.Fatal(err)
	}
	if got := bus.regs[regConfig]; got != [2]byte{0x97, 0x9C} {
		t.Fatalf("config after sleep = % x", got)
	}
	if err := d.Sleep(false); err != nil {
		t.Fatal(err)
	}
	if got := bus.regs[regConfig]; got != [2]byte{0x97, 0x1C} {
		t.Fatalf("config after wake = % x", got)
	}
}

func TestVersionAndErrors(t *testing.T) {
	bus := &fakeI2C{regs: map[byte][2]byte{regVersion: {0x00, 0x03}}}
	v, err := New(bus).Version()
	if err != nil || v != 3 {
		t.Fatalf("Version = %d, %v", v, err)
	}

	bus.err = errors.New("nack")
	if _, err := New(bus).Read(); err == nil {
		t.Fatal("expected bus error")
	}
	if _, err := New(nil).SoC(); !errors.Is(err, ErrNoBus) {
		t.Fatalf("nil bus err = %v", err)
	}
}
