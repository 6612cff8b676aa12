package types

// ------------------------
// Environment & power collaborators
// ------------------------

// EnvReading is one sample from the humidity/temperature/pressure sensor.
type EnvReading struct {
	HumidityPct  float64 `json:"rh_pct"`
	TemperatureF float64 `json:"temp_f"`
	PressurePa   float64 `json:"pressure_pa"`
}

// BatteryReading is one sample from the fuel gauge.
type BatteryReading struct {
	CellVolts float64 `json:"vcell"`
	SoCPct    float64 `json:"soc_pct"`
}
