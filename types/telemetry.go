package types

import "weatherstation-go/errcode"

// Snapshot field names, also used as Fault.Field values. They match the
// short keys the transport layer expects.
const (
	FieldHumidity      = "h"
	FieldTemperature   = "t"
	FieldPressure      = "p"
	FieldSoilTemp      = "st"
	FieldSoilMoisture  = "m"
	FieldWindSpeed     = "a"
	FieldWindGust      = "g"
	FieldWindDirection = "d"
	FieldBatteryVolts  = "v"
	FieldBatterySoC    = "c"
)

// PascalToMmHg is the fixed pressure conversion applied to the "p" field.
const PascalToMmHg = 0.000295299830714

// Snapshot is the flat record produced by one acquisition cycle. It is
// built once and not mutated afterwards.
type Snapshot struct {
	Humidity             float64 `json:"h"`
	TemperatureF         float64 `json:"t"`
	PressureMmHg         float64 `json:"p"`
	SoilTemperatureF     float64 `json:"st"`
	SoilMoisturePercent  int     `json:"m"`
	WindSpeedMPH         float64 `json:"a"`
	WindGustMPH          float64 `json:"g"`
	WindDirectionDegrees float64 `json:"d"`
	BatteryVoltage       float64 `json:"v"`
	BatterySoCPercent    float64 `json:"c"`

	TSms   int64   `json:"ts_ms"`
	Faults []Fault `json:"faults,omitempty"`
}

// Fault marks one snapshot field as unreliable. The field keeps its zero or
// sentinel value.
type Fault struct {
	Field  string       `json:"field"`
	Code   errcode.Code `json:"code"`
	Detail string       `json:"detail,omitempty"`
}

// OK reports whether field has no recorded fault.
func (s *Snapshot) OK(field string) bool {
	for _, f := range s.Faults {
		if f.Field == field {
			return false
		}
	}
	return true
}

// FaultFor returns the fault recorded for field, if any.
func (s *Snapshot) FaultFor(field string) (Fault, bool) {
	for _, f := range s.Faults {
		if f.Field == field {
			return f, true
		}
	}
	return Fault{}, false
}
