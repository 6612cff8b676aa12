package onewire

import (
	"context"
	"time"

	"weatherstation-go/errcode"
)

// Port is the part of a UART the 1-Wire line needs. *uartx.UART satisfies it.
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
	SetBaudRate(br uint32)
}

const (
	resetBaud = 9600
	dataBaud  = 115200

	defaultSlotTimeout = 50 * time.Millisecond
)

// UART is a Line built on a UART with TX and RX tied to the bus through an
// open-drain buffer (Maxim application note 214).
//
// At 9600 baud a 0xF0 character is a reset pulse; any device answering with
// a presence pulse corrupts the echo. At 115200 baud one character is one
// time slot: 0xFF writes a 1 or opens a read slot, 0x00 writes a 0.
type UART struct {
	p       Port
	Timeout time.Duration // per-character echo deadline
	buf     [1]byte
}

// NewUART wraps p. The port is left at the data rate.
func NewUART(p Port) *UART {
	p.SetBaudRate(dataBaud)
	return &UART{p: p, Timeout: defaultSlotTimeout}
}

func (u *UART) Reset() (bool, error) {
	u.p.SetBaudRate(resetBaud)
	echo, err := u.exchange(0xF0)
	u.p.SetBaudRate(dataBaud)
	if err != nil {
		return false, err
	}
	return echo != 0xF0, nil
}

func (u *UART) WriteBit(bit bool) error {
	var v byte
	if bit {
		v = 0xFF
	}
	echo, err := u.exchange(v)
	if err != nil {
		return err
	}
	if echo != v {
		return ErrNoise
	}
	return nil
}

func (u *UART) ReadBit() (bool, error) {
	echo, err := u.exchange(0xFF)
	if err != nil {
		return false, err
	}
	return echo == 0xFF, nil
}

func (u *UART) exchange(v byte) (byte, error) {
	u.buf[0] = v
	if _, err := u.p.Write(u.buf[:]); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), u.Timeout)
	defer cancel()
	n, err := u.p.RecvSomeContext(ctx, u.buf[:])
	if err != nil {
		return 0, errcode.Wrap(errcode.Timeout, "onewire", err)
	}
	if n != 1 {
		return 0, &errcode.E{C: errcode.Timeout, Op: "onewire", Msg: "no echo"}
	}
	return u.buf[0], nil
}
