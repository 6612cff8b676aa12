package weather

import (
	"strconv"

	"tinygo.org/x/drivers"

	"weatherstation-go/drivers/anemometer"
	"weatherstation-go/drivers/ds18x20"
	"weatherstation-go/drivers/onewire"
	"weatherstation-go/drivers/soilmoisture"
	"weatherstation-go/drivers/windvane"
	"weatherstation-go/errcode"
	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/types"
	"weatherstation-go/x/timex"
)

// rig is a station built for one config, plus the pieces the service
// needs to keep hold of.
type rig struct {
	station *Station
	wind    *anemometer.Anemometer
	windPin halcore.IRQPin // nil when the pin cannot interrupt
}

// unavailable stands in for a collaborator that could not be built, so
// every cycle reports why.
type unavailable struct{ err error }

func (u unavailable) ReadEnv() (types.EnvReading, error) { return types.EnvReading{}, u.err }
func (u unavailable) ReadBattery() (types.BatteryReading, error) {
	return types.BatteryReading{}, u.err
}
func (u unavailable) ReadTemperatureF() (float64, error) { return 0, u.err }

// build wires every collaborator the board can supply. Problems are
// returned for logging; the station is usable regardless.
func build(b halcore.Board, cfg types.StationConfig) (*rig, []error) {
	var errs []error
	note := func(err error) { errs = append(errs, err) }
	r := &rig{station: &Station{}}
	st := r.station

	// Environment and battery share the I²C lookup.
	if i2c, err := i2cFor(b, cfg.Env); err != nil {
		note(errcode.Wrap(errcode.Of(err), "env", err))
		st.Env = unavailable{err}
	} else {
		st.Env = NewBME280(i2c, cfg.Env.Addr)
	}
	if i2c, err := i2cFor(b, cfg.Battery); err != nil {
		note(errcode.Wrap(errcode.Of(err), "battery", err))
		st.Battery = unavailable{err}
	} else {
		st.Battery = NewGauge(i2c, cfg.Battery.Addr)
	}

	// Soil temperature probes.
	if b.OneWire == nil {
		st.Probe = unavailable{errNotFitted}
	} else if line, err := b.OneWire.Line(cfg.Probe); err != nil {
		note(errcode.Wrap(errcode.Of(err), "probe", err))
		st.Probe = unavailable{err}
	} else {
		st.Probe = ds18x20.New(onewire.New(line), ds18x20.Config{
			Conversion:          timex.Ms(cfg.Probe.ConversionMs),
			IgnoreScratchpadCRC: cfg.Probe.IgnoreScratchpadCRC,
		})
	}

	// Anemometer. The pulse source is attached by the service.
	r.wind = anemometer.New(anemometer.Config{
		ScaleMPH:   cfg.Anemometer.ScaleMPH,
		DebounceMs: int64(cfg.Anemometer.DebounceMs),
		Window:     timex.Ms(cfg.Anemometer.WindowMs),
	})
	st.Wind = r.wind
	if p, ok := pinFor(b, cfg.Anemometer.Pin); !ok {
		note(wiring(errcode.UnknownPin, "anemometer", "pin", cfg.Anemometer.Pin))
	} else if irq, ok := p.(halcore.IRQPin); !ok {
		note(wiring(errcode.Unsupported, "anemometer", "pin", cfg.Anemometer.Pin))
	} else {
		r.windPin = irq
	}

	// Vane.
	if adc, ok := adcFor(b, cfg.Vane.ADCPin); !ok {
		note(wiring(errcode.UnknownPin, "vane", "adc", cfg.Vane.ADCPin))
	} else {
		st.Vane = windvane.New(adc, windvane.Config{
			Samples: cfg.Vane.Samples,
			Spacing: timex.Ms(cfg.Vane.SpacingMs),
		})
	}

	// Soil moisture, powered from a GPIO.
	adc, okADC := adcFor(b, cfg.Soil.ADCPin)
	pwr, okPwr := pinFor(b, cfg.Soil.PowerPin)
	switch {
	case !okADC:
		note(wiring(errcode.UnknownPin, "soil", "adc", cfg.Soil.ADCPin))
	case !okPwr:
		note(wiring(errcode.UnknownPin, "soil", "power pin", cfg.Soil.PowerPin))
	default:
		if err := pwr.ConfigureOutput(false); err != nil {
			note(errcode.Wrap(errcode.Of(err), "soil", err))
			break
		}
		st.Soil = soilmoisture.New(adc, pwr, soilmoisture.Config{
			RangeLow:  cfg.Soil.RangeLow,
			RangeHigh: cfg.Soil.RangeHigh,
			Settle:    timex.Ms(cfg.Soil.SettleMs),
		})
	}

	return r, errs
}

func wiring(c errcode.Code, op, what string, n int) error {
	return &errcode.E{C: c, Op: op, Msg: what + " " + strconv.Itoa(n)}
}

func i2cFor(b halcore.Board, ref types.BusRef) (drivers.I2C, error) {
	if ref.Type != "i2c" {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "bus", Msg: ref.Type}
	}
	if b.I2C == nil {
		return nil, errcode.UnknownBus
	}
	i2c, ok := b.I2C.ByID(ref.ID)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "bus", Msg: ref.ID}
	}
	return i2c, nil
}

func pinFor(b halcore.Board, n int) (halcore.GPIOPin, bool) {
	if b.Pins == nil {
		return nil, false
	}
	return b.Pins.ByNumber(n)
}

func adcFor(b halcore.Board, n int) (halcore.ADC, bool) {
	if b.ADCs == nil {
		return nil, false
	}
	return b.ADCs.ByNumber(n)
}
