//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"weatherstation-go/services/weather/internal/halcore"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin in memory. Set fires the handler
// synchronously when the level change matches the configured edge.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    halcore.Pull
	irqEdge halcore.Edge
	irqFunc func()
}

func (p *FakePin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	if pull == halcore.PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports whether the pin was last configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// HasIRQ reports whether a handler is attached.
func (p *FakePin) HasIRQ() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.irqFunc != nil
}

// Pulse drives the pin to the opposite level and back: exactly two edges.
// An idle-high input sees one falling then one rising edge.
func (p *FakePin) Pulse() {
	lvl := p.Get()
	p.Set(!lvl)
	p.Set(lvl)
}

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	switch cfg {
	case halcore.EdgeBoth:
		return seen == halcore.EdgeRising || seen == halcore.EdgeFalling
	default:
		return cfg != halcore.EdgeNone && cfg == seen
	}
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	return f.Pin(n), true
}

// Pin returns the *FakePin for n, creating it on first use.
func (f *HostPinFactory) Pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p
}

// withIRQ lists the pins that currently have a handler attached.
func (f *HostPinFactory) withIRQ() []*FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*FakePin
	for _, p := range f.pins {
		if p.HasIRQ() {
			out = append(out, p)
		}
	}
	return out
}

// ----------------------------- ADC (host) ------------------------------------

// FakeADC returns a fixed value, or the result of Source when set.
type FakeADC struct {
	mu     sync.Mutex
	value  uint16
	Source func() uint16
}

func (a *FakeADC) Get() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Source != nil {
		return a.Source() & 0x0FFF
	}
	return a.value
}

// Set fixes the reading; it clears Source.
func (a *FakeADC) Set(v uint16) {
	a.mu.Lock()
	a.value = v & 0x0FFF
	a.Source = nil
	a.mu.Unlock()
}

func (a *FakeADC) setSource(fn func() uint16) {
	a.mu.Lock()
	a.Source = fn
	a.mu.Unlock()
}

// HostADCFactory returns stable *FakeADC instances per GPIO number.
type HostADCFactory struct {
	mu   sync.Mutex
	adcs map[int]*FakeADC
}

func (f *HostADCFactory) ByNumber(n int) (halcore.ADC, bool) {
	if n < 26 || n > 29 {
		return nil, false
	}
	return f.ADC(n), true
}

// ADC returns the *FakeADC for n, creating it on first use.
func (f *HostADCFactory) ADC(n int) *FakeADC {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adcs == nil {
		f.adcs = make(map[int]*FakeADC)
	}
	a, ok := f.adcs[n]
	if !ok {
		a = &FakeADC{}
		f.adcs[n] = a
	}
	return a
}
