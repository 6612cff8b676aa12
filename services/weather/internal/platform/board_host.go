//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"weatherstation-go/drivers/onewire"
	"weatherstation-go/drivers/onewire/onewiresim"
	"weatherstation-go/drivers/windvane"
	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/types"
)

// Sim is the simulated station behind the host board. Its wiring follows
// DefaultStationConfig.
type Sim struct {
	Pins  *HostPinFactory
	ADCs  *HostADCFactory
	I2C0  *HostI2C
	Net   *onewiresim.Network
	Probe *onewiresim.Probe

	compass []windvane.Sector // sectors in bearing order
	heading atomic.Int32      // index into compass
}

// NewSim builds the simulated station with its peripherals loaded.
func NewSim() *Sim {
	def := types.DefaultStationConfig()
	s := &Sim{
		Pins:  &HostPinFactory{},
		ADCs:  &HostADCFactory{},
		I2C0:  &HostI2C{},
		Probe: onewiresim.NewProbe(onewiresim.Addr(0x28, 0x0000_02A1_B2C3)),
	}
	s.Probe.SetTemperature(14.5)
	s.Net = onewiresim.New(s.Probe)

	loadBME280(s.I2C0.Attach(def.Env.Addr))
	loadMAX17043(s.I2C0.Attach(def.Battery.Addr))

	s.compass = append([]windvane.Sector(nil), windvane.Sectors...)
	sort.Slice(s.compass, func(i, j int) bool { return s.compass[i].Radians < s.compass[j].Radians })
	s.heading.Store(int32(len(s.compass) / 4)) // roughly east

	s.ADCs.ADC(def.Vane.ADCPin).setSource(func() uint16 {
		sec := s.compass[int(s.heading.Load())%len(s.compass)]
		return (sec.Lo + sec.Hi) / 2
	})
	power := s.Pins.Pin(def.Soil.PowerPin)
	s.ADCs.ADC(def.Soil.ADCPin).setSource(func() uint16 {
		if !power.Get() {
			return 0
		}
		return 1480
	})
	return s
}

// Line returns the simulated probe network whatever the configured mode.
func (s *Sim) Line(types.ProbeConfig) (onewire.Line, error) { return s.Net, nil }

// Board exposes the simulation through the halcore factories.
func (s *Sim) Board() halcore.Board {
	return halcore.Board{
		Pins:    s.Pins,
		ADCs:    s.ADCs,
		I2C:     &hostI2CFactory{buses: map[string]*HostI2C{"i2c0": s.I2C0, "i2c1": {}}},
		OneWire: s,
		Drive:   s.Drive,
	}
}

// Drive pulses every pin with an attached interrupt at a wind-dependent
// rate and lets heading and soil temperature wander until ctx ends.
func (s *Sim) Drive(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	weather := time.NewTicker(10 * time.Second)
	defer weather.Stop()
	pulse := time.NewTimer(time.Second)
	defer pulse.Stop()

	soilC := 14.5
	for {
		select {
		case <-ctx.Done():
			return
		case <-weather.C:
			n := int32(len(s.compass))
			h := (s.heading.Load() + int32(rng.Intn(3)) - 1 + n) % n
			s.heading.Store(h)
			soilC += (rng.Float64() - 0.5) * 0.2
			s.Probe.SetTemperature(soilC)
		case <-pulse.C:
			for _, p := range s.Pins.withIRQ() {
				p.Pulse()
			}
			// 4..12 mph at the default 1.492 mph per Hz.
			mph := 8 + 4*math.Sin(time.Since(start).Seconds()/60)
			pulse.Reset(time.Duration(float64(time.Second) * 1.492 / mph))
		}
	}
}

// DefaultBoard returns a freshly simulated station.
func DefaultBoard() halcore.Board { return NewSim().Board() }
