// Package windvane reads a resistor-ladder wind vane through an ADC and
// reduces a burst of samples to a mean direction.
package windvane

import (
	"math"
	"time"
)

// ADC is one analog channel returning 12-bit counts (0..4095).
type ADC interface {
	Get() uint16
}

// Sector is one compass point of the calibration table. Raw counts in
// [Lo, Hi) resolve to Radians.
type Sector struct {
	Name    string
	Lo, Hi  uint16
	Radians float64
}

// Sectors is the calibration for the reference vane on a 3.3 V, 12-bit
// ADC. The bounds follow the ladder's measured characteristic and are
// matched in this order.
var Sectors = []Sector{
	{"S", 2200, 2400, 3.14},
	{"SSW", 2100, 2200, 3.53},
	{"SW", 3200, 3299, 3.93},
	{"WSW", 3100, 3200, 4.32},
	{"W", 3890, 3999, 4.71},
	{"WNW", 3700, 3780, 5.11},
	{"NW", 3780, 3890, 5.50},
	{"NNW", 3400, 3500, 5.89},
	{"N", 3570, 3700, 0.00},
	{"NNE", 2600, 2700, 0.39},
	{"NE", 2750, 2850, 0.79},
	{"ENE", 1510, 1580, 1.18},
	{"E", 1580, 1650, 1.57},
	{"ESE", 1470, 1510, 1.96},
	{"SE", 1900, 2000, 2.36},
	{"SSE", 1700, 1750, 2.74},
}

// OpenCircuit is returned by Lookup for raw values no sector claims,
// including everything above 4000 (vane disconnected).
const OpenCircuit = -1.0

// Lookup maps a raw ADC reading to radians.
func Lookup(raw uint16) float64 {
	for _, s := range Sectors {
		if raw >= s.Lo && raw < s.Hi {
			return s.Radians
		}
	}
	return OpenCircuit
}

// Config holds the sampling burst. Zero fields take defaults.
type Config struct {
	Samples int           // default 10
	Spacing time.Duration // default 200 ms
}

// Result is the outcome of one burst.
type Result struct {
	Degrees float64 // [0, 360); 0 when Valid is 0
	Valid   int     // samples that contributed
	Open    int     // samples that matched no sector
}

// Vane samples one ADC channel. It is not safe for concurrent use.
type Vane struct {
	adc ADC
	cfg Config

	sumCos, sumSin float64
	n              int
	open           int
}

func New(adc ADC, cfg Config) *Vane {
	if cfg.Samples <= 0 {
		cfg.Samples = 10
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = 200 * time.Millisecond
	}
	return &Vane{adc: adc, cfg: cfg}
}

// Sample takes one reading and folds it into the running vector sum.
// Only angles strictly inside (0, 2π) count, so North's 0.00 and the
// open-circuit sentinel are both skipped.
func (v *Vane) Sample() {
	rad := Lookup(v.adc.Get())
	if rad == OpenCircuit {
		v.open++
	}
	if rad > 0 && rad < 2*math.Pi {
		v.sumCos += math.Cos(rad)
		v.sumSin += math.Sin(rad)
		v.n++
	}
}

// Resolve takes the configured burst of samples and returns the mean
// direction. Accumulators are cleared afterwards.
func (v *Vane) Resolve() Result {
	for i := 0; i < v.cfg.Samples; i++ {
		if i > 0 {
			sleep(v.cfg.Spacing)
		}
		v.Sample()
	}
	return v.Mean()
}

// Mean reduces the samples taken so far and clears them.
func (v *Vane) Mean() Result {
	r := Result{Valid: v.n, Open: v.open}
	if v.n > 0 {
		r.Degrees = meanDegrees(v.sumCos/float64(v.n), v.sumSin/float64(v.n))
	}
	v.sumCos, v.sumSin, v.n, v.open = 0, 0, 0, 0
	return r
}

// meanDegrees folds the two-quadrant arctangent back onto the full circle.
func meanDegrees(cos, sin float64) float64 {
	d := math.Atan(sin/cos) * 180 / math.Pi
	if cos < 0 {
		d += 180
	}
	if d < 0 {
		d += 360
	}
	return d
}

var sleep = time.Sleep
