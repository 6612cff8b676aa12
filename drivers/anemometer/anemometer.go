// Package anemometer turns cup-anemometer pulse timing into wind speed.
//
// Pulses are fed in with OnPulse (from the pulse worker that drains the
// edge interrupt). Resolve reduces everything accumulated since the last
// resolve to an average speed and a gust speed and starts a new window:
//
//	a := anemometer.New(anemometer.Config{})
//	// ... OnPulse(ms) from the IRQ worker ...
//	avg, gust := a.Measure()
package anemometer

import (
	"sync"
	"time"
)

// Config holds calibration. Zero fields take defaults.
type Config struct {
	// ScaleMPH is the wind speed for one pulse per second. Default 1.492.
	ScaleMPH float64
	// DebounceMs drops periods shorter than this as contact bounce.
	// Default 10.
	DebounceMs int64
	// Window is how long Measure lets pulses accrue. Default 5 s.
	Window time.Duration
}

const (
	DefaultScaleMPH   = 1.492
	DefaultDebounceMs = 10
	DefaultWindow     = 5 * time.Second
)

// Stats is the accumulator state.
type Stats struct {
	Count     int64
	SumMs     int64
	MinMs     int64 // 0 when no period has been recorded
	LastMs    int64 // time of the last accepted edge
	HasLastMs bool
}

// Anemometer is safe for concurrent use: OnPulse runs on the pulse worker
// while Resolve runs on the acquisition goroutine.
type Anemometer struct {
	cfg Config

	mu sync.Mutex
	st Stats
}

func New(cfg Config) *Anemometer {
	if cfg.ScaleMPH <= 0 {
		cfg.ScaleMPH = DefaultScaleMPH
	}
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = DefaultDebounceMs
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Anemometer{cfg: cfg}
}

// OnPulse records an edge seen at nowMs on a monotonic millisecond clock.
//
// The first edge of a window only sets the baseline. A period below the
// debounce threshold is dropped without moving the baseline.
func (a *Anemometer) OnPulse(nowMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.st.HasLastMs {
		a.st.LastMs, a.st.HasLastMs = nowMs, true
		return
	}
	period := nowMs - a.st.LastMs
	if period < a.cfg.DebounceMs {
		return
	}
	if a.st.MinMs == 0 || period < a.st.MinMs {
		a.st.MinMs = period
	}
	a.st.SumMs += period
	a.st.Count++
	a.st.LastMs = nowMs
}

// Stats returns a copy of the accumulator without resetting it.
func (a *Anemometer) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st
}

// Resolve converts the accumulated periods into average and gust speed in
// MPH, then resets the accumulator including the last edge time, so the
// next edge after a resolve is a fresh baseline. With no periods both
// speeds are zero.
func (a *Anemometer) Resolve() (avgMPH, gustMPH float64) {
	a.mu.Lock()
	st := a.st
	a.st = Stats{}
	a.mu.Unlock()

	if st.Count == 0 || st.SumMs == 0 {
		return 0, 0
	}
	avgMPH = a.cfg.ScaleMPH * 1000 * float64(st.Count) / float64(st.SumMs)
	gustMPH = a.cfg.ScaleMPH * 1000 / float64(st.MinMs)
	return avgMPH, gustMPH
}

// Measure waits for the configured window while pulses accrue, then
// resolves. The window always runs to completion.
func (a *Anemometer) Measure() (avgMPH, gustMPH float64) {
	sleep(a.cfg.Window)
	return a.Resolve()
}

var sleep = time.Sleep
