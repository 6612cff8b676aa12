package types

import (
	"encoding/json"
	"testing"

	"weatherstation-go/errcode"
)

func TestDefaultStationConfigValid(t *testing.T) {
	if err := DefaultStationConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestStationConfigPartialDecode(t *testing.T) {
	cfg := DefaultStationConfig()
	raw := `{"interval_s": 30, "soil": {"range_high": 3000}, "probe": {"mode": "uart"}}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.IntervalS != 30 || cfg.Soil.RangeHigh != 3000 || cfg.Probe.Mode != "uart" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched nested keys keep their defaults.
	if cfg.Soil.SettleMs != 10 || cfg.Probe.ConversionMs != 1000 || cfg.Anemometer.ScaleMPH != 1.492 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestStationConfigValidate(t *testing.T) {
	cases := []func(*StationConfig){
		func(c *StationConfig) { c.Probe.Mode = "spi" },
		func(c *StationConfig) { c.Anemometer.WindowMs = 0 },
		func(c *StationConfig) { c.Vane.Samples = 0 },
		func(c *StationConfig) { c.Soil.RangeHigh = c.Soil.RangeLow },
		func(c *StationConfig) { c.Anemometer.ScaleMPH = -1 },
	}
	for i, mut := range cases {
		c := DefaultStationConfig()
		mut(&c)
		err := c.Validate()
		if errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("case %d: want invalid_params, got %v", i, err)
		}
	}
}

func TestSnapshotFaults(t *testing.T) {
	s := Snapshot{Faults: []Fault{{Field: FieldSoilTemp, Code: errcode.NoDevice}}}
	if s.OK(FieldSoilTemp) {
		t.Fatal("soil temp should be faulted")
	}
	if !s.OK(FieldWindSpeed) {
		t.Fatal("wind speed should be ok")
	}
	f, ok := s.FaultFor(FieldSoilTemp)
	if !ok || f.Code != errcode.NoDevice {
		t.Fatalf("FaultFor = %+v, %v", f, ok)
	}
}
