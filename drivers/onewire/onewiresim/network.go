// Package onewiresim simulates a 1-Wire network at the time-slot level.
//
// A Network implements onewire.Line, so it can stand in for a real pin or
// UART underneath onewire.Bus. Devices see ROM-level addressing (SEARCH,
// MATCH, SKIP) resolved by the network and only handle function bytes.
package onewiresim

import (
	"sync"

	"weatherstation-go/drivers/onewire"
)

// Device is a simulated slave.
type Device interface {
	ROM() onewire.Address
	// Reset clears any function-level state on a bus reset.
	Reset()
	// Function receives a function byte after the device was addressed.
	Function(b byte)
	// Drive supplies the next byte the device drives onto the bus.
	// 0xFF means the device leaves the bus released.
	Drive() byte
}

type state int

const (
	stIdle state = iota
	stROMCmd
	stSearch
	stMatch
	stFunc
)

// Network is a set of devices sharing one line.
type Network struct {
	mu   sync.Mutex
	devs []Device

	st     state
	active []Device // devices still addressed
	wbits  int      // bits collected into wbyte
	wbyte  byte
	rom    onewire.Address
	sbit   int // search: current ROM bit index
	sphase int // search: 0 id bit, 1 complement, 2 direction write
	rbits  int // bits left in rbyte
	rbyte  byte

	Resets int
}

// New returns a network populated with devs.
func New(devs ...Device) *Network {
	return &Network{devs: devs}
}

// Attach adds a device.
func (n *Network) Attach(d Device) {
	n.mu.Lock()
	n.devs = append(n.devs, d)
	n.mu.Unlock()
}

// Detach removes every device.
func (n *Network) Detach() {
	n.mu.Lock()
	n.devs = nil
	n.st = stIdle
	n.mu.Unlock()
}

func (n *Network) Reset() (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Resets++
	for _, d := range n.devs {
		d.Reset()
	}
	n.active = append(n.active[:0], n.devs...)
	n.wbits, n.wbyte, n.rbits = 0, 0, 0
	if len(n.devs) == 0 {
		n.st = stIdle
		return false, nil
	}
	n.st = stROMCmd
	return true, nil
}

func (n *Network) WriteBit(bit bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.st {
	case stSearch:
		if n.sphase != 2 {
			// Master skipped the read slots; the devices lose sync.
			n.st = stIdle
			return nil
		}
		kept := n.active[:0]
		for _, d := range n.active {
			if romBit(d.ROM(), n.sbit) == bit {
				kept = append(kept, d)
			}
		}
		n.active = kept
		n.sbit++
		n.sphase = 0
		if n.sbit == 64 {
			n.st = stIdle
		}
		return nil
	case stIdle:
		return nil
	}

	if bit {
		n.wbyte |= 1 << n.wbits
	}
	n.wbits++
	if n.wbits < 8 {
		return nil
	}
	b := n.wbyte
	n.wbits, n.wbyte = 0, 0

	switch n.st {
	case stROMCmd:
		n.romCommand(b)
	case stMatch:
		n.rom[n.sbit] = b
		n.sbit++
		if n.sbit == len(n.rom) {
			kept := n.active[:0]
			for _, d := range n.active {
				if d.ROM() == n.rom {
					kept = append(kept, d)
				}
			}
			n.active = kept
			n.st = stFunc
		}
	case stFunc:
		n.rbits = 0
		for _, d := range n.active {
			d.Function(b)
		}
	}
	return nil
}

func (n *Network) romCommand(b byte) {
	switch b {
	case onewire.CmdSearchROM:
		n.st, n.sbit, n.sphase = stSearch, 0, 0
	case onewire.CmdMatchROM:
		n.st, n.sbit = stMatch, 0
	case onewire.CmdSkipROM:
		n.st = stFunc
	default:
		n.st = stIdle
	}
}

func (n *Network) ReadBit() (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.st {
	case stSearch:
		// Wired-AND: a device holding 0 pulls the line low.
		want := n.sphase == 1
		v := true
		for _, d := range n.active {
			if romBit(d.ROM(), n.sbit) == want {
				v = false
			}
		}
		if n.sphase < 2 {
			n.sphase++
		}
		return v, nil
	case stFunc:
		if n.rbits == 0 {
			n.rbyte = 0xFF
			for _, d := range n.active {
				n.rbyte &= d.Drive()
			}
			n.rbits = 8
		}
		v := n.rbyte&1 != 0
		n.rbyte >>= 1
		n.rbits--
		return v, nil
	}
	return true, nil
}

func romBit(a onewire.Address, i int) bool {
	return a[i/8]&(1<<(i%8)) != 0
}

var _ onewire.Line = (*Network)(nil)
