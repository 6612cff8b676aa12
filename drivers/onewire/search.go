package onewire

import (
	"encoding/binary"

	ow "periph.io/x/conn/v3/onewire"
)

var _ ow.BusSearcher = (*Bus)(nil)

// ConnAddress returns a as the 64-bit form used by periph.io/x/conn.
func (a Address) ConnAddress() ow.Address { return ow.Address(binary.LittleEndian.Uint64(a[:])) }

// FromConnAddress is the inverse of Address.ConnAddress.
func FromConnAddress(v ow.Address) Address {
	var a Address
	binary.LittleEndian.PutUint64(a[:], uint64(v))
	return a
}

func (b *Bus) String() string { return "onewire" }

// Tx resets the bus, writes w and then fills r. Strong pull-up is not
// supported by any Line, so power is ignored and probes need their own
// supply.
func (b *Bus) Tx(w, r []byte, power ow.Pullup) error {
	if err := b.Reset(); err != nil {
		return err
	}
	if err := b.Write(w...); err != nil {
		return err
	}
	return b.Read(r)
}

// SearchTriplet runs one step of the SEARCH ROM walk: read the id bit and
// its complement, then write the branch taken. direction is followed only
// when devices disagree.
func (b *Bus) SearchTriplet(direction byte) (ow.TripletResult, error) {
	idBit, err := b.l.ReadBit()
	if err != nil {
		return ow.TripletResult{}, err
	}
	cmpBit, err := b.l.ReadBit()
	if err != nil {
		return ow.TripletResult{}, err
	}
	// Wired-AND: a low id bit means some device holds 0, a low complement
	// means some device holds 1.
	res := ow.TripletResult{GotZero: !idBit, GotOne: !cmpBit}
	switch {
	case res.GotZero && res.GotOne:
		res.Taken = direction & 1
	case res.GotZero:
		res.Taken = 0
	default:
		res.Taken = 1
	}
	return res, b.l.WriteBit(res.Taken == 1)
}

// Search enumerates devices with the periph SEARCH ROM algorithm. With
// alarmOnly set only devices in alarm state answer.
func (b *Bus) Search(alarmOnly bool) ([]ow.Address, error) {
	return ow.Search(b, alarmOnly)
}

// Devices returns the ROM code of every device on the bus. ErrNoPresence
// is returned when nothing answers the reset. Codes are returned as read;
// callers decide what a bad CRC means.
func (b *Bus) Devices() ([]Address, error) {
	if err := b.Reset(); err != nil {
		return nil, err
	}
	found, err := b.Search(false)
	out := make([]Address, 0, len(found))
	for _, v := range found {
		out = append(out, FromConnAddress(v))
	}
	return out, err
}
