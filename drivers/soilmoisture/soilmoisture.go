// Package soilmoisture reads a resistive soil-moisture probe.
//
// The probe is only powered for the duration of one conversion; leaving it
// energised corrodes the electrodes.
package soilmoisture

import (
	"time"

	"weatherstation-go/x/mathx"
)

// ADC is the probe's signal channel (12-bit counts).
type ADC interface {
	Get() uint16
}

// Power switches the probe supply.
type Power interface {
	Set(on bool)
}

// Config is the calibration. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	RangeLow  int           // raw counts in dry soil
	RangeHigh int           // raw counts in water
	Settle    time.Duration // powered time before sampling
}

func DefaultConfig() Config {
	return Config{RangeLow: 0, RangeHigh: 3350, Settle: 10 * time.Millisecond}
}

// Reading is one duty-cycled sample.
type Reading struct {
	Raw     uint16
	Percent int // 0..100
}

type Probe struct {
	adc ADC
	pwr Power
	cfg Config
}

// New returns a probe with its supply switched off.
func New(adc ADC, pwr Power, cfg Config) *Probe {
	pwr.Set(false)
	return &Probe{adc: adc, pwr: pwr, cfg: cfg}
}

// Read powers the probe, waits for it to settle, samples once and powers
// it down again.
func (p *Probe) Read() Reading {
	p.pwr.Set(true)
	sleep(p.cfg.Settle)
	raw := p.adc.Get()
	p.pwr.Set(false)
	return Reading{Raw: raw, Percent: Percent(int(raw), p.cfg.RangeLow, p.cfg.RangeHigh)}
}

// ReadPercent is Read().Percent.
func (p *Probe) ReadPercent() int { return p.Read().Percent }

// Percent rescales raw from [low, high] onto 0..100 with truncation and
// clamps the result at both ends.
func Percent(raw, low, high int) int {
	return mathx.Clamp(mathx.Map(raw, low, high, 0, 100), 0, 100)
}

var sleep = time.Sleep
