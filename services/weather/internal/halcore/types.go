// Package halcore holds the hardware contracts the weather service is
// built against. Platform factories implement them on the board or in
// simulation.
package halcore

import (
	"context"

	"tinygo.org/x/drivers"

	"weatherstation-go/drivers/onewire"
	"weatherstation-go/types"
)

// ---- Buses ----

// I2CBusFactory injects configured I²C instances by id ("i2c0", "i2c1").
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// OneWireFactory opens the probe line described by cfg.
type OneWireFactory interface {
	Line(cfg types.ProbeConfig) (onewire.Line, error)
}

// ---- Analog ----

// ADC is one analog channel scaled to 12-bit counts (0..4095).
type ADC interface {
	Get() uint16
}

// ADCFactory supplies ADC channels by GPIO number (26..29 on RP2).
type ADCFactory interface {
	ByNumber(n int) (ADC, bool)
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts. The handler runs in interrupt
// context on hardware and must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// Board bundles the factories for one target.
type Board struct {
	Pins    PinFactory
	ADCs    ADCFactory
	I2C     I2CBusFactory
	OneWire OneWireFactory

	// Drive, when set, animates simulated inputs until ctx ends.
	Drive func(ctx context.Context)
}

func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}
