package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// cfgPico is the reference station: probes bit-banged on GP2, anemometer
// on GP3, vane on ADC0, soil probe on ADC1 powered from GP6, BME280 and
// MAX17043 on i2c0.
const cfgPico = `{
  "weather": {
    "interval_s": 60,
    "probe": {"mode": "gpio", "pin": 2, "conversion_ms": 1000},
    "anemometer": {"pin": 3, "scale_mph": 1.492, "debounce_ms": 10, "window_ms": 5000},
    "vane": {"adc_pin": 26, "samples": 10, "spacing_ms": 200},
    "soil": {"adc_pin": 27, "power_pin": 6, "range_low": 0, "range_high": 3350, "settle_ms": 10},
    "env": {"type": "i2c", "id": "i2c0", "addr": 119},
    "battery": {"type": "i2c", "id": "i2c0", "addr": 54}
  },
  "console": {
    "interval": 30
  }
}`

// cfgPicoUART reads the probes through UART1 (TX GP8, RX GP9) instead.
const cfgPicoUART = `{
  "weather": {
    "interval_s": 60,
    "probe": {"mode": "uart", "uart": "uart1", "tx": 8, "rx": 9, "conversion_ms": 1000}
  },
  "console": {
    "interval": 30
  }
}`

// cfgSim suits the host simulation: short cycles.
const cfgSim = `{
  "weather": {
    "interval_s": 10
  },
  "console": {
    "interval": 5
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":      []byte(cfgPico),
	"pico-uart": []byte(cfgPicoUART),
	"sim":       []byte(cfgSim),
}
