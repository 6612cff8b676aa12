package weather

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/bme280"

	"weatherstation-go/drivers/ds18x20"
	"weatherstation-go/drivers/max17043"
	"weatherstation-go/errcode"
	"weatherstation-go/types"
)

// ---- BME280 ----

// BME280 adapts the tinygo driver to EnvSensor. The chip is probed and
// configured on first use, and again after it stops answering.
type BME280 struct {
	dev        bme280.Device
	configured bool
}

func NewBME280(i2c drivers.I2C, addr uint16) *BME280 {
	d := bme280.New(i2c)
	if addr != 0 {
		d.Address = addr
	}
	return &BME280{dev: d}
}

func (b *BME280) ReadEnv() (types.EnvReading, error) {
	if !b.configured {
		if !b.dev.Connected() {
			return types.EnvReading{}, &errcode.E{C: errcode.NoDevice, Op: "bme280", Msg: "chip id mismatch"}
		}
		b.dev.Configure()
		b.configured = true
	}
	t, err := b.dev.ReadTemperature() // milli °C
	if err != nil {
		b.configured = false
		return types.EnvReading{}, errcode.Wrap(errcode.Error, "bme280", err)
	}
	p, err := b.dev.ReadPressure() // milli Pa
	if err != nil {
		b.configured = false
		return types.EnvReading{}, errcode.Wrap(errcode.Error, "bme280", err)
	}
	h, err := b.dev.ReadHumidity() // hundredths of a percent
	if err != nil {
		b.configured = false
		return types.EnvReading{}, errcode.Wrap(errcode.Error, "bme280", err)
	}
	return types.EnvReading{
		HumidityPct:  float64(h) / 100,
		TemperatureF: ds18x20.CToF(float64(t) / 1000),
		PressurePa:   float64(p) / 1000,
	}, nil
}

// ---- MAX17043 ----

// Gauge adapts a MAX17043 to BatteryGauge.
type Gauge struct {
	dev *max17043.Device
}

func NewGauge(i2c drivers.I2C, addr uint16) *Gauge {
	d := max17043.New(i2c)
	if addr != 0 {
		d.Addr = addr
	}
	return &Gauge{dev: d}
}

func (g *Gauge) ReadBattery() (types.BatteryReading, error) {
	r, err := g.dev.Read()
	if err != nil {
		return types.BatteryReading{}, errcode.Wrap(errcode.Of(err), "max17043", err)
	}
	return types.BatteryReading{CellVolts: r.CellVolts, SoCPct: r.SoCPct}, nil
}
