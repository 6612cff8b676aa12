// Package max17043 provides a driver for the MAX17043 single-cell LiPo
// fuel gauge.
//
//	g := max17043.New(i2c)
//	r, err := g.Read() // r.CellVolts, r.SoCPct
//
// Registers are 16-bit big-endian.
package max17043

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address (fixed on the part).
const Address = 0x36

const (
	regVCell   = 0x02
	regSOC     = 0x04
	regMode    = 0x06
	regVersion = 0x08
	regConfig  = 0x0C
	regCommand = 0xFE

	modeQuickStart = 0x4000
	cmdPowerOnRst  = 0x5400
	configSleepBit = 0x0080
)

// VCELL is 12 bits at 1.25 mV per LSB.
const vcellLSBVolts = 0.00125

var ErrNoBus = errors.New("max17043: nil i2c bus")

// Reading is one gauge sample.
type Reading struct {
	CellVolts float64
	SoCPct    float64
}

// Device wraps an I2C connection to a MAX17043.
type Device struct {
	i2c  drivers.I2C
	Addr uint16

	w [3]byte
	r [2]byte
}

// New returns a device at the default address. The bus must already be
// configured. Nothing is sent.
func New(i2c drivers.I2C) *Device {
	return &Device{i2c: i2c, Addr: Address}
}

// Read samples cell voltage and state of charge.
func (d *Device) Read() (Reading, error) {
	v, err := d.CellVolts()
	if err != nil {
		return Reading{}, err
	}
	soc, err := d.SoC()
	if err != nil {
		return Reading{}, err
	}
	return Reading{CellVolts: v, SoCPct: soc}, nil
}

// CellVolts returns the cell voltage in volts.
func (d *Device) CellVolts() (float64, error) {
	msb, lsb, err := d.readReg(regVCell)
	if err != nil {
		return 0, err
	}
	raw := uint16(msb)<<4 | uint16(lsb)>>4
	return float64(raw) * vcellLSBVolts, nil
}

// SoC returns state of charge in percent; the low byte is 1/256 %.
func (d *Device) SoC() (float64, error) {
	msb, lsb, err := d.readReg(regSOC)
	if err != nil {
		return 0, err
	}
	return float64(msb) + float64(lsb)/256, nil
}

// Version returns the production version register.
func (d *Device) Version() (uint16, error) {
	msb, lsb, err := d.readReg(regVersion)
	return uint16(msb)<<8 | uint16(lsb), err
}

// QuickStart restarts fuel-gauge calculations as if the cell had just been
// inserted.
func (d *Device) QuickStart() error { return d.writeReg(regMode, modeQuickStart) }

// Reset issues a power-on reset.
func (d *Device) Reset() error { return d.writeReg(regCommand, cmdPowerOnRst) }

// Sleep puts the gauge into low-power sleep or wakes it.
func (d *Device) Sleep(on bool) error {
	msb, lsb, err := d.readReg(regConfig)
	if err != nil {
		return err
	}
	cfg := uint16(msb)<<8 | uint16(lsb)
	if on {
		cfg |= configSleepBit
	} else {
		cfg &^= configSleepBit
	}
	return d.writeReg(regConfig, cfg)
}

func (d *Device) readReg(reg byte) (msb, lsb byte, err error) {
	if d.i2c == nil {
		return 0, 0, ErrNoBus
	}
	d.w[0] = reg
	if err := d.i2c.Tx(d.Addr, d.w[:1], d.r[:2]); err != nil {
		return 0, 0, err
	}
	return d.r[0], d.r[1], nil
}

func (d *Device) writeReg(reg byte, v uint16) error {
	if d.i2c == nil {
		return ErrNoBus
	}
	d.w[0] = reg
	d.w[1] = byte(v >> 8)
	d.w[2] = byte(v)
	return d.i2c.Tx(d.Addr, d.w[:3], nil)
}
