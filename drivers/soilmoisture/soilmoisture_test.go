package soilmoisture

import (
	"testing"
	"time"
)

type fakeADC struct {
	raw   uint16
	pwr   *fakePower
	reads int
	hot   bool // power was on at sample time
}

func (a *fakeADC) Get() uint16 {
	a.reads++
	a.hot = a.pwr.on
	return a.raw
}

type fakePower struct {
	on  bool
	log []bool
}

func (p *fakePower) Set(on bool) {
	p.on = on
	p.log = append(p.log, on)
}

func TestPercent(t *testing.T) {
	cases := []struct {
		raw, want int
	}{
		{0, 0},
		{3350, 100},
		{1675, 50},
		{33, 0}, // 0.98 truncates
		{34, 1}, // 1.01
		{4095, 100},
		{-200, 0},
	}
	for _, c := range cases {
		if got := Percent(c.raw, 0, 3350); got != c.want {
			t.Errorf("Percent(%d) = %d, want %d", c.raw, got, c.want)
		}
	}
	// Offset calibration: below the dry point clamps to zero.
	if got := Percent(500, 1000, 3000); got != 0 {
		t.Errorf("below range low = %d, want 0", got)
	}
	if got := Percent(2000, 1000, 3000); got != 50 {
		t.Errorf("midpoint = %d, want 50", got)
	}
}

func TestReadDutyCycle(t *testing.T) {
	var slept []time.Duration
	prev := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = prev })

	pwr := &fakePower{}
	adc := &fakeADC{raw: 2010, pwr: pwr}
	p := New(adc, pwr, DefaultConfig())

	r := p.Read()
	if r.Raw != 2010 || r.Percent != 60 {
		t.Fatalf("reading = %+v, want raw 2010 / 60%%", r)
	}
	if !adc.hot {
		t.Fatal("probe sampled while unpowered")
	}
	if pwr.on {
		t.Fatal("probe left powered")
	}
	want := []bool{false, true, false}
	if len(pwr.log) != len(want) {
		t.Fatalf("power log = %v, want %v", pwr.log, want)
	}
	for i := range want {
		if pwr.log[i] != want[i] {
			t.Fatalf("power log = %v, want %v", pwr.log, want)
		}
	}
	if len(slept) != 1 || slept[0] != 10*time.Millisecond {
		t.Fatalf("settle = %v, want [10ms]", slept)
	}
	if adc.reads != 1 {
		t.Fatalf("reads = %d, want 1", adc.reads)
	}
}
