//go:build rp2040 || rp2350

package platform

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
	tgow "tinygo.org/x/drivers/onewire"

	"weatherstation-go/drivers/onewire"
	"weatherstation-go/errcode"
	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/types"
)

// DefaultBoard wires the station to the RP2 peripherals. Pin numbers are
// Pico GP numbers.
func DefaultBoard() halcore.Board {
	machine.InitADC()
	return halcore.Board{
		Pins:    rp2PinFactory{},
		ADCs:    rp2ADCFactory{},
		I2C:     defaultI2CFactory(),
		OneWire: rp2OneWire{},
	}
}

// ---- I²C ----

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// defaultI2CFactory configures i2c0 and i2c1 on board-default pins at 400 kHz.
func defaultI2CFactory() halcore.I2CBusFactory {
	f := &rp2I2CFactory{buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	f.buses["i2c1"] = b1

	return f
}

// ---- GPIO (with IRQ) ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	// GP0..GP28 only.
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

func (r *rp2Pin) SetIRQ(edge halcore.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e halcore.Edge) machine.PinChange {
	switch e {
	case halcore.EdgeRising:
		return machine.PinRising
	case halcore.EdgeFalling:
		return machine.PinFalling
	case halcore.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- ADC ----

type rp2ADCFactory struct{}

func (rp2ADCFactory) ByNumber(n int) (halcore.ADC, bool) {
	// ADC0..ADC3 sit on GP26..GP29.
	if n < 26 || n > 29 {
		return nil, false
	}
	a := machine.ADC{Pin: machine.Pin(n)}
	a.Configure(machine.ADCConfig{})
	return rp2ADC{a: a}, true
}

// rp2ADC scales machine.ADC's left-justified 16-bit result to 12 bits.
type rp2ADC struct{ a machine.ADC }

func (r rp2ADC) Get() uint16 { return r.a.Get() >> 4 }

// ---- 1-Wire ----

type rp2OneWire struct{}

func (rp2OneWire) Line(cfg types.ProbeConfig) (onewire.Line, error) {
	switch cfg.Mode {
	case "uart":
		var hw *uartx.UART
		switch cfg.UART {
		case "uart0":
			hw = uartx.UART0
		case "uart1":
			hw = uartx.UART1
		default:
			return nil, &errcode.E{C: errcode.UnknownBus, Op: "onewire", Msg: cfg.UART}
		}
		_ = hw.Configure(uartx.UARTConfig{
			BaudRate: 115200,
			TX:       machine.Pin(cfg.TX),
			RX:       machine.Pin(cfg.RX),
		})
		return onewire.NewUART(hw), nil
	case "gpio":
		if cfg.Pin < 0 || cfg.Pin > 28 {
			return nil, errcode.UnknownPin
		}
		return &gpioLine{d: tgow.New(machine.Pin(cfg.Pin))}, nil
	default:
		return nil, errcode.Unsupported
	}
}

// gpioLine drives the line with the bit-banged tinygo driver.
type gpioLine struct{ d tgow.Device }

func (g *gpioLine) Reset() (bool, error) {
	// The driver reports a missing presence pulse as an error.
	return g.d.Reset() == nil, nil
}

func (g *gpioLine) WriteBit(bit bool) error {
	if bit {
		g.d.WriteBit(1)
	} else {
		g.d.WriteBit(0)
	}
	return nil
}

func (g *gpioLine) ReadBit() (bool, error) { return g.d.ReadBit() == 1, nil }
