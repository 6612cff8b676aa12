package onewire_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	ow "periph.io/x/conn/v3/onewire"

	"weatherstation-go/drivers/onewire"
	"weatherstation-go/drivers/onewire/onewiresim"
	"weatherstation-go/errcode"
)

func TestKnownROMValidates(t *testing.T) {
	// Worked example from the Maxim CRC application note.
	rom := onewire.Address{0x02, 0x1C, 0xB8, 0x01, 0x00, 0x00, 0x00, 0xA2}
	if got := ow.CalcCRC(rom[:7]); got != 0xA2 {
		t.Fatalf("CalcCRC = %#02x, want 0xa2", got)
	}
	if !rom.Valid() {
		t.Fatal("expected ROM to validate")
	}
}

func TestGeneratedROMsMatchConnCRC(t *testing.T) {
	for _, a := range []onewire.Address{
		onewiresim.Addr(0x28, 0x0000_0A1B_2C3D),
		onewiresim.Addr(0x10, 0xFFFF_FFFF_FFFF),
		onewiresim.Addr(0x26, 0x123456),
	} {
		if a[7] != ow.CalcCRC(a[:7]) || !ow.CheckCRC(a[:]) || !a.Valid() {
			t.Fatalf("%s: check byte disagrees with CalcCRC %#02x", a, ow.CalcCRC(a[:7]))
		}
		if onewire.FromConnAddress(a.ConnAddress()) != a {
			t.Fatalf("%s: conn address round trip lost bytes", a)
		}
		if byte(a.ConnAddress()&0xFF) != a.Family() {
			t.Fatalf("%s: family is not the low byte of the conn address", a)
		}
	}
}

func TestAddressSingleBitFlipFails(t *testing.T) {
	a := onewiresim.Addr(0x28, 0x0000_0A1B_2C3D)
	if !a.Valid() {
		t.Fatal("generated address does not validate")
	}
	for i := 0; i < 64; i++ {
		b := a
		b[i/8] ^= 1 << (i % 8)
		if b.Valid() {
			t.Fatalf("bit %d flipped, address still validates", i)
		}
	}
}

func TestDevicesFindsEveryDevice(t *testing.T) {
	want := []onewire.Address{
		onewiresim.Addr(0x28, 0x01),
		onewiresim.Addr(0x28, 0x02),
		onewiresim.Addr(0x10, 0xFFFF_FFFF_FFFF),
		onewiresim.Addr(0x26, 0x123456),
	}
	var devs []onewiresim.Device
	for _, a := range want {
		devs = append(devs, onewiresim.NewProbe(a))
	}
	bus := onewire.New(onewiresim.New(devs...))

	got, err := bus.Devices()
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("found %d devices, want %d: %v", len(got), len(want), got)
	}
	sortAddrs(got)
	sortAddrs(want)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("device %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDevicesSingleDevice(t *testing.T) {
	a := onewiresim.Addr(0x22, 0xBEEF)
	bus := onewire.New(onewiresim.New(onewiresim.NewProbe(a)))
	got, err := bus.Devices()
	if err != nil || len(got) != 1 || got[0] != a {
		t.Fatalf("Devices = %v, %v; want [%s]", got, err, a)
	}
}

func TestDevicesEmptyBus(t *testing.T) {
	bus := onewire.New(onewiresim.New())
	got, err := bus.Devices()
	if !errors.Is(err, onewire.ErrNoPresence) {
		t.Fatalf("err = %v, want ErrNoPresence", err)
	}
	if errcode.Of(err) != errcode.NoDevice {
		t.Fatalf("code = %s, want no_device", errcode.Of(err))
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
	if err := bus.Reset(); !errors.Is(err, onewire.ErrNoPresence) {
		t.Fatalf("Reset err = %v", err)
	}
}

func TestConnSearchThroughTriplets(t *testing.T) {
	a := onewiresim.Addr(0x28, 0x01)
	b := onewiresim.Addr(0x28, 0x8000_0000_0002)
	var bus ow.BusSearcher = onewire.New(onewiresim.New(onewiresim.NewProbe(a), onewiresim.NewProbe(b)))

	got, err := ow.Search(bus, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("found %v, want two devices", got)
	}
	seen := map[ow.Address]bool{got[0]: true, got[1]: true}
	if !seen[a.ConnAddress()] || !seen[b.ConnAddress()] {
		t.Fatalf("found %v, want %v and %v", got, a.ConnAddress(), b.ConnAddress())
	}
}

func TestTxResetsBeforeWriting(t *testing.T) {
	p := onewiresim.NewProbe(onewiresim.Addr(0x28, 7))
	p.SetTemperature(21.5)
	net := onewiresim.New(p)
	bus := onewire.New(net)

	if err := bus.Tx([]byte{onewire.CmdSkipROM, 0x44}, nil, ow.WeakPullup); err != nil {
		t.Fatal(err)
	}
	sp := make([]byte, 9)
	if err := bus.Tx([]byte{onewire.CmdSkipROM, 0xBE}, sp, ow.WeakPullup); err != nil {
		t.Fatal(err)
	}
	if net.Resets != 2 || p.Conversions != 1 {
		t.Fatalf("resets=%d conversions=%d, want 2 and 1", net.Resets, p.Conversions)
	}
	if !bytes.Equal(sp[:8], p.Scratchpad[:]) || !ow.CheckCRC(sp) {
		t.Fatalf("scratchpad = % x", sp)
	}

	empty := onewire.New(onewiresim.New())
	if err := empty.Tx([]byte{onewire.CmdSkipROM}, nil, ow.WeakPullup); !errors.Is(err, onewire.ErrNoPresence) {
		t.Fatalf("Tx on empty bus = %v, want ErrNoPresence", err)
	}
}

func TestSelectAddressesOneDevice(t *testing.T) {
	a1 := onewiresim.NewProbe(onewiresim.Addr(0x28, 1))
	a2 := onewiresim.NewProbe(onewiresim.Addr(0x28, 2))
	a1.SetTemperature(20)
	a2.SetTemperature(-10.5)
	bus := onewire.New(onewiresim.New(a1, a2))

	if err := bus.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Select(a2.ROM()); err != nil {
		t.Fatal(err)
	}
	if err := bus.Write(0x44); err != nil {
		t.Fatal(err)
	}
	if a1.Conversions != 0 || a2.Conversions != 1 {
		t.Fatalf("conversions a1=%d a2=%d, want 0 and 1", a1.Conversions, a2.Conversions)
	}

	_ = bus.Reset()
	_ = bus.Select(a2.ROM())
	_ = bus.WriteByte(0xBE)
	sp := make([]byte, 9)
	if err := bus.Read(sp); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sp[:8], a2.Scratchpad[:]) {
		t.Fatalf("scratchpad = % x, want % x", sp[:8], a2.Scratchpad[:])
	}
	if !ow.CheckCRC(sp) {
		t.Fatalf("scratchpad CRC mismatch: % x", sp)
	}
}

func TestSkipAddressesAll(t *testing.T) {
	a1 := onewiresim.NewProbe(onewiresim.Addr(0x28, 1))
	a2 := onewiresim.NewProbe(onewiresim.Addr(0x28, 2))
	bus := onewire.New(onewiresim.New(a1, a2))
	_ = bus.Reset()
	if err := bus.Skip(); err != nil {
		t.Fatal(err)
	}
	_ = bus.WriteByte(0x44)
	if a1.Conversions != 1 || a2.Conversions != 1 {
		t.Fatalf("conversions = %d, %d; want 1, 1", a1.Conversions, a2.Conversions)
	}
}

// -----------------------------------------------------------------------------
// UART line
// -----------------------------------------------------------------------------

type fakePort struct {
	baud     uint32
	presence bool
	bits     []bool // bits devices drive during read slots
	noise    bool
	echo     []byte
	sent     []byte
}

func (p *fakePort) SetBaudRate(br uint32) { p.baud = br }

func (p *fakePort) Write(b []byte) (int, error) {
	for _, v := range b {
		p.sent = append(p.sent, v)
		switch {
		case p.baud == 9600:
			if p.presence {
				p.echo = append(p.echo, 0xE0)
			} else {
				p.echo = append(p.echo, 0xF0)
			}
		case p.noise:
			p.echo = append(p.echo, v^0x01)
		case v == 0xFF && len(p.bits) > 0:
			bit := p.bits[0]
			p.bits = p.bits[1:]
			if bit {
				p.echo = append(p.echo, 0xFF)
			} else {
				p.echo = append(p.echo, 0xFC)
			}
		default:
			p.echo = append(p.echo, v)
		}
	}
	return len(b), nil
}

func (p *fakePort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	if len(p.echo) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(b, p.echo)
	p.echo = p.echo[n:]
	return n, nil
}

func TestUARTReset(t *testing.T) {
	p := &fakePort{presence: true}
	u := onewire.NewUART(p)
	if p.baud != 115200 {
		t.Fatalf("baud after NewUART = %d, want 115200", p.baud)
	}
	ok, err := u.Reset()
	if err != nil || !ok {
		t.Fatalf("Reset = %v, %v; want presence", ok, err)
	}
	if p.baud != 115200 {
		t.Fatalf("baud after Reset = %d, want 115200", p.baud)
	}
	if p.sent[0] != 0xF0 {
		t.Fatalf("reset byte = %#02x, want 0xf0", p.sent[0])
	}

	p.presence = false
	if ok, _ := u.Reset(); ok {
		t.Fatal("expected no presence")
	}
}

func TestUARTByteRoundTrip(t *testing.T) {
	p := &fakePort{presence: true}
	bus := onewire.New(onewire.NewUART(p))

	if err := bus.WriteByte(0xA5); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xFF, 0x00, 0xFF, 0x00, 0x00, 0xFF, 0x00, 0xFF} // LSB first
	if !bytes.Equal(p.sent, want) {
		t.Fatalf("slots = % x, want % x", p.sent, want)
	}

	p.bits = []bool{true, false, false, true, true, false, true, false}
	v, err := bus.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x59 {
		t.Fatalf("ReadByte = %#02x, want 0x59", v)
	}
}

func TestUARTNoiseAndTimeout(t *testing.T) {
	p := &fakePort{noise: true}
	u := onewire.NewUART(p)
	if err := u.WriteBit(false); !errors.Is(err, onewire.ErrNoise) {
		t.Fatalf("WriteBit err = %v, want ErrNoise", err)
	}

	q := &silentPort{}
	u = onewire.NewUART(q)
	u.Timeout = 1
	if _, err := u.ReadBit(); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("ReadBit err = %v, want timeout", err)
	}
}

type silentPort struct{}

func (silentPort) SetBaudRate(uint32)          {}
func (silentPort) Write(b []byte) (int, error) { return len(b), nil }
func (silentPort) RecvSomeContext(ctx context.Context, _ []byte) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func sortAddrs(a []onewire.Address) {
	sort.Slice(a, func(i, j int) bool { return bytes.Compare(a[i][:], a[j][:]) < 0 })
}
