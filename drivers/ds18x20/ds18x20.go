// Package ds18x20 reads Dallas/Maxim 1-Wire temperature probes.
//
// Every device found by a ROM search is converted and read in turn; the
// decode is chosen by the family byte of its address (DS18S20, DS18B20,
// DS1822 and the DS2438 battery monitor are understood).
//
//	r := ds18x20.New(onewire.New(line), ds18x20.Config{})
//	f, err := r.ReadTemperatureF()
package ds18x20

import (
	"fmt"
	"time"

	ow "periph.io/x/conn/v3/onewire"

	"weatherstation-go/drivers/onewire"
	"weatherstation-go/errcode"
)

// Function commands.
const (
	cmdConvertT      = 0x44
	cmdReadScratch   = 0xBE
	cmdRecallMemory  = 0xB8
	scratchpadLength = 9
)

// Errors returned by the reader wrap one of these codes; test with errors.Is.
var (
	ErrChecksum          = errcode.Checksum
	ErrUnsupportedDevice = errcode.UnsupportedDevice
	ErrNoDevice          = errcode.NoDevice
)

// Bus is the 1-Wire master contract. *onewire.Bus satisfies it.
type Bus interface {
	Reset() error
	Devices() ([]onewire.Address, error)
	Select(a onewire.Address) error
	Write(p ...byte) error
	Read(p []byte) error
}

// Config controls reader behaviour. All fields are optional.
type Config struct {
	// Conversion is the wait between "convert T" and reading back.
	// Default 1 s, the worst case across supported families.
	Conversion time.Duration
	// IgnoreScratchpadCRC accepts scratchpads whose CRC does not match.
	// The reading is still returned with Reading.CRCOK false.
	IgnoreScratchpadCRC bool
}

// Reading is one decoded device.
type Reading struct {
	Addr    onewire.Address
	Family  Family
	Celsius float64
	CRCOK   bool // scratchpad CRC matched
}

// Fahrenheit returns the reading in degrees F.
func (r Reading) Fahrenheit() float64 { return CToF(r.Celsius) }

// Reader probes every device on a bus. It is not safe for concurrent use.
type Reader struct {
	bus Bus
	cfg Config

	last    Reading
	hasLast bool
}

// New creates a reader. The bus must already be wired; nothing is sent.
func New(bus Bus, cfg Config) *Reader {
	if cfg.Conversion <= 0 {
		cfg.Conversion = time.Second
	}
	return &Reader{bus: bus, cfg: cfg}
}

// ReadAll enumerates the bus and reads every device in search order.
//
// A device whose address fails its CRC or whose family is unknown aborts
// the scan: readings gathered so far are returned with the error. An empty
// bus yields ErrNoDevice and clears the last reading.
func (r *Reader) ReadAll() ([]Reading, error) {
	addrs, err := r.bus.Devices()
	if err != nil && errcode.Of(err) != errcode.NoDevice {
		return nil, err
	}
	if len(addrs) == 0 {
		r.hasLast = false
		return nil, fail(ErrNoDevice, "no devices found")
	}

	out := make([]Reading, 0, len(addrs))
	for _, a := range addrs {
		rd, err := r.read(a)
		if err != nil {
			return out, err
		}
		out = append(out, rd)
		r.last, r.hasLast = rd, true
	}
	return out, nil
}

// ReadTemperatureF reads every device and returns the last one in °F.
func (r *Reader) ReadTemperatureF() (float64, error) {
	rs, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	return rs[len(rs)-1].Fahrenheit(), nil
}

// Last returns the most recent successful reading. ok is false before the
// first read and after a scan that found no devices.
func (r *Reader) Last() (Reading, bool) { return r.last, r.hasLast }

func (r *Reader) read(a onewire.Address) (Reading, error) {
	if !a.Valid() {
		return Reading{}, fail(ErrChecksum, "address %s: crc %#02x != %#02x", a, ow.CalcCRC(a[:7]), a[7])
	}
	fam := Family(a.Family())
	v, ok := variants[fam]
	if !ok {
		return Reading{}, fail(ErrUnsupportedDevice, "family %#02x (%s)", byte(fam), a)
	}

	if err := r.command(a, cmdConvertT); err != nil {
		return Reading{}, err
	}
	sleep(r.cfg.Conversion)

	if v.paged {
		if err := r.command(a, cmdRecallMemory, 0x00); err != nil {
			return Reading{}, err
		}
	}
	read := []byte{cmdReadScratch}
	if v.paged {
		read = append(read, 0x00)
	}
	if err := r.command(a, read...); err != nil {
		return Reading{}, err
	}
	var sp [scratchpadLength]byte
	if err := r.bus.Read(sp[:]); err != nil {
		return Reading{}, err
	}

	crcOK := ow.CheckCRC(sp[:])
	if !crcOK {
		if allFF(sp[:]) {
			return Reading{}, fail(ErrNoDevice, "%s did not respond", a)
		}
		if !r.cfg.IgnoreScratchpadCRC {
			return Reading{}, fail(ErrChecksum, "scratchpad %s: % x", a, sp)
		}
	}

	return Reading{
		Addr:    a,
		Family:  fam,
		Celsius: v.decode(sp[:8]),
		CRCOK:   crcOK,
	}, nil
}

// command resets the bus, selects a and writes p.
func (r *Reader) command(a onewire.Address, p ...byte) error {
	if err := r.bus.Reset(); err != nil {
		return err
	}
	if err := r.bus.Select(a); err != nil {
		return err
	}
	return r.bus.Write(p...)
}

func allFF(p []byte) bool {
	for _, b := range p {
		if b != 0xFF {
			return false
		}
	}
	return true
}

func fail(c errcode.Code, format string, args ...any) error {
	return &errcode.E{C: c, Op: "ds18x20", Msg: fmt.Sprintf(format, args...), Err: c}
}

var sleep = time.Sleep
