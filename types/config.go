package types

import "weatherstation-go/errcode"

// Station configuration supplied on topic "config/weather".
//
// Decoding is done on top of DefaultStationConfig(), so a device config only
// needs the keys it changes.

type StationConfig struct {
	IntervalS  int              `json:"interval_s"` // pause between acquisition cycles
	Probe      ProbeConfig      `json:"probe"`
	Anemometer AnemometerConfig `json:"anemometer"`
	Vane       VaneConfig       `json:"vane"`
	Soil       SoilConfig       `json:"soil"`
	Env        BusRef           `json:"env"`     // BME280
	Battery    BusRef           `json:"battery"` // MAX17043
}

// ProbeConfig selects the 1-Wire line for the soil temperature probes.
type ProbeConfig struct {
	Mode                string `json:"mode"` // "gpio" (bit-banged pin) or "uart"
	Pin                 int    `json:"pin"`  // gpio mode
	UART                string `json:"uart"` // uart mode: "uart0" | "uart1"
	TX                  int    `json:"tx"`
	RX                  int    `json:"rx"`
	ConversionMs        int    `json:"conversion_ms"`
	IgnoreScratchpadCRC bool   `json:"ignore_scratchpad_crc"`
}

type AnemometerConfig struct {
	Pin        int     `json:"pin"`
	ScaleMPH   float64 `json:"scale_mph"` // MPH at one pulse per second
	DebounceMs int     `json:"debounce_ms"`
	WindowMs   int     `json:"window_ms"`
}

type VaneConfig struct {
	ADCPin    int `json:"adc_pin"`
	Samples   int `json:"samples"`
	SpacingMs int `json:"spacing_ms"`
}

type SoilConfig struct {
	ADCPin    int `json:"adc_pin"`
	PowerPin  int `json:"power_pin"`
	RangeLow  int `json:"range_low"`  // raw counts, dry
	RangeHigh int `json:"range_high"` // raw counts, saturated
	SettleMs  int `json:"settle_ms"`
}

type BusRef struct {
	Type string `json:"type"` // "i2c"
	ID   string `json:"id"`   // "i2c0"
	Addr uint16 `json:"addr,omitempty"`
}

// DefaultStationConfig mirrors the reference station wiring on a Pico.
func DefaultStationConfig() StationConfig {
	return StationConfig{
		IntervalS: 60,
		Probe: ProbeConfig{
			Mode:         "gpio",
			Pin:          2,
			UART:         "uart1",
			TX:           8,
			RX:           9,
			ConversionMs: 1000,
		},
		Anemometer: AnemometerConfig{
			Pin:        3,
			ScaleMPH:   1.492,
			DebounceMs: 10,
			WindowMs:   5000,
		},
		Vane: VaneConfig{
			ADCPin:    26,
			Samples:   10,
			SpacingMs: 200,
		},
		Soil: SoilConfig{
			ADCPin:    27,
			PowerPin:  6,
			RangeLow:  0,
			RangeHigh: 3350,
			SettleMs:  10,
		},
		Env:     BusRef{Type: "i2c", ID: "i2c0", Addr: 0x77},
		Battery: BusRef{Type: "i2c", ID: "i2c0", Addr: 0x36},
	}
}

// Validate rejects values the acquisition code cannot run with.
func (c StationConfig) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: msg}
	}
	switch {
	case c.IntervalS < 0:
		return bad("interval_s must be >= 0")
	case c.Probe.Mode != "gpio" && c.Probe.Mode != "uart":
		return bad("probe.mode must be gpio or uart")
	case c.Probe.ConversionMs <= 0:
		return bad("probe.conversion_ms must be > 0")
	case c.Anemometer.ScaleMPH <= 0:
		return bad("anemometer.scale_mph must be > 0")
	case c.Anemometer.DebounceMs < 0:
		return bad("anemometer.debounce_ms must be >= 0")
	case c.Anemometer.WindowMs <= 0:
		return bad("anemometer.window_ms must be > 0")
	case c.Vane.Samples <= 0:
		return bad("vane.samples must be > 0")
	case c.Vane.SpacingMs < 0:
		return bad("vane.spacing_ms must be >= 0")
	case c.Soil.RangeHigh == c.Soil.RangeLow:
		return bad("soil range is empty")
	case c.Soil.SettleMs < 0:
		return bad("soil.settle_ms must be >= 0")
	}
	return nil
}
