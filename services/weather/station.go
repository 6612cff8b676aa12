package weather

import (
	"weatherstation-go/drivers/windvane"
	"weatherstation-go/errcode"
	"weatherstation-go/types"
	"weatherstation-go/x/timex"
)

// Collaborators consumed by Station. Any of them may be nil, in which case
// the fields it feeds are reported as unsupported.

type EnvSensor interface {
	ReadEnv() (types.EnvReading, error)
}

type BatteryGauge interface {
	ReadBattery() (types.BatteryReading, error)
}

type ProbeReader interface {
	ReadTemperatureF() (float64, error)
}

type MoistureSampler interface {
	ReadPercent() int
}

// WindSpeed blocks for its observation window and returns average and gust.
type WindSpeed interface {
	Measure() (avgMPH, gustMPH float64)
}

// WindDirection blocks for its sampling burst.
type WindDirection interface {
	Resolve() windvane.Result
}

// Station assembles one snapshot per Acquire. It is not safe for
// concurrent use; the wind speed collaborator is the only part fed from
// interrupt context.
type Station struct {
	Env     EnvSensor
	Wind    WindSpeed
	Probe   ProbeReader
	Soil    MoistureSampler
	Vane    WindDirection
	Battery BatteryGauge

	Now func() int64 // wall clock, ms
}

var errNotFitted = &errcode.E{C: errcode.Unsupported, Op: "station", Msg: "not fitted"}

// Acquire runs one full cycle. It always returns a snapshot; failed fields
// keep their zero value and carry a Fault.
func (s *Station) Acquire() types.Snapshot {
	var snap types.Snapshot
	fault := func(err error, fields ...string) {
		for _, f := range fields {
			snap.Faults = append(snap.Faults, types.Fault{Field: f, Code: errcode.Of(err), Detail: err.Error()})
		}
	}

	// Environment first, then the wind window, then the slower probes.
	if s.Env == nil {
		fault(errNotFitted, types.FieldHumidity, types.FieldTemperature, types.FieldPressure)
	} else if env, err := s.Env.ReadEnv(); err != nil {
		fault(err, types.FieldHumidity, types.FieldTemperature, types.FieldPressure)
	} else {
		snap.Humidity = env.HumidityPct
		snap.TemperatureF = env.TemperatureF
		snap.PressureMmHg = env.PressurePa * types.PascalToMmHg
	}

	if s.Wind == nil {
		fault(errNotFitted, types.FieldWindSpeed, types.FieldWindGust)
	} else {
		snap.WindSpeedMPH, snap.WindGustMPH = s.Wind.Measure()
	}

	if s.Probe == nil {
		fault(errNotFitted, types.FieldSoilTemp)
	} else if f, err := s.Probe.ReadTemperatureF(); err != nil {
		fault(err, types.FieldSoilTemp)
	} else {
		snap.SoilTemperatureF = f
	}

	if s.Soil == nil {
		fault(errNotFitted, types.FieldSoilMoisture)
	} else {
		snap.SoilMoisturePercent = s.Soil.ReadPercent()
	}

	if s.Vane == nil {
		fault(errNotFitted, types.FieldWindDirection)
	} else {
		r := s.Vane.Resolve()
		snap.WindDirectionDegrees = r.Degrees
		if r.Valid == 0 {
			fault(&errcode.E{C: errcode.OpenCircuit, Op: "windvane", Msg: "no sample matched a sector"}, types.FieldWindDirection)
		}
	}

	if s.Battery == nil {
		fault(errNotFitted, types.FieldBatteryVolts, types.FieldBatterySoC)
	} else if b, err := s.Battery.ReadBattery(); err != nil {
		fault(err, types.FieldBatteryVolts, types.FieldBatterySoC)
	} else {
		snap.BatteryVoltage = b.CellVolts
		snap.BatterySoCPercent = b.SoCPct
	}

	now := s.Now
	if now == nil {
		now = timex.NowMs
	}
	snap.TSms = now()
	return snap
}
