//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"tinygo.org/x/drivers"

	"weatherstation-go/errcode"
	"weatherstation-go/services/weather/internal/halcore"
)

// ----------------------------- I²C (host) ------------------------------------

// RegisterFile emulates a byte-addressed I²C peripheral. The first written
// byte sets the register pointer; further written bytes and all read bytes
// advance it.
type RegisterFile struct {
	mu  sync.Mutex
	ptr byte
	mem [256]byte
}

// Load writes data starting at reg without touching the pointer.
func (r *RegisterFile) Load(reg byte, data ...byte) {
	r.mu.Lock()
	for i, b := range data {
		r.mem[reg+byte(i)] = b
	}
	r.mu.Unlock()
}

// Peek returns the byte at reg.
func (r *RegisterFile) Peek(reg byte) byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mem[reg]
}

func (r *RegisterFile) tx(w, rd []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(w) > 0 {
		r.ptr = w[0]
		for _, b := range w[1:] {
			r.mem[r.ptr] = b
			r.ptr++
		}
	}
	for i := range rd {
		rd[i] = r.mem[r.ptr]
		r.ptr++
	}
}

// HostI2C implements tinygo drivers.I2C over a set of RegisterFiles.
// Transactions to an address with no device fail like a NACK.
type HostI2C struct {
	mu   sync.Mutex
	devs map[uint16]*RegisterFile
}

var _ drivers.I2C = (*HostI2C)(nil)

// Attach places an empty device at addr, or returns the one already there.
func (h *HostI2C) Attach(addr uint16) *RegisterFile {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.devs == nil {
		h.devs = make(map[uint16]*RegisterFile)
	}
	d, ok := h.devs[addr]
	if !ok {
		d = &RegisterFile{}
		h.devs[addr] = d
	}
	return d
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	d := h.devs[addr]
	h.mu.Unlock()
	if d == nil {
		return &errcode.E{C: errcode.NoDevice, Op: "i2c", Msg: "nack"}
	}
	d.tx(w, r)
	return nil
}

type hostI2CFactory struct {
	buses map[string]*HostI2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	if !ok {
		return nil, false
	}
	return b, true
}

var _ halcore.I2CBusFactory = (*hostI2CFactory)(nil)

// ---- simulated peripherals ----

// loadBME280 fills d with the BME280 datasheet calibration set and raw
// samples that compensate to about 25.1 °C, 1006.5 hPa and 49 %RH.
func loadBME280(d *RegisterFile) {
	d.Load(0xD0, 0x60) // chip id
	d.Load(0x88,
		0x70, 0x6B, // T1 27504
		0x43, 0x67, // T2 26435
		0x18, 0xFC, // T3 -1000
		0x7D, 0x8E, // P1 36477
		0x43, 0xD6, // P2 -10685
		0xD0, 0x0B, // P3 3024
		0x27, 0x0B, // P4 2855
		0x8C, 0x00, // P5 140
		0xF9, 0xFF, // P6 -7
		0x8C, 0x3C, // P7 15500
		0xF8, 0xC6, // P8 -14600
		0x70, 0x17, // P9 6000
	)
	d.Load(0xA1, 75) // H1
	d.Load(0xE1,
		0x6A, 0x01, // H2 362
		0x00,       // H3
		0x14, 0x24, // H4 324, H5 low nibble
		0x03, // H5 50
		30,   // H6
	)
	d.Load(0xF7,
		0x65, 0x5A, 0xC0, // press 415148
		0x7E, 0xED, 0x00, // temp 519888
		0x74, 0x00, // hum
	)
}

// loadMAX17043 fills d with a cell at 4.15 V and 87.5 % charge.
func loadMAX17043(d *RegisterFile) {
	d.Load(0x02, 0xCF, 0x80) // VCELL
	d.Load(0x04, 0x57, 0x80) // SOC
	d.Load(0x08, 0x00, 0x03) // VERSION
	d.Load(0x0C, 0x97, 0x1C) // CONFIG
}
