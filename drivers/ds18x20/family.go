package ds18x20

// Family is the ROM family code, byte 0 of a device address.
type Family byte

const (
	DS18S20 Family = 0x10
	DS1822  Family = 0x22
	DS2438  Family = 0x26
	DS18B20 Family = 0x28
)

// variant describes how one family is read and decoded.
type variant struct {
	name string
	// paged devices take a page number after recall and read commands and
	// need the page recalled before it reflects the last conversion.
	paged  bool
	decode func(sp []byte) float64 // scratchpad bytes 0..7 to degrees C
}

var variants = map[Family]variant{
	DS18S20: {name: "DS18S20", decode: decodeCountRemain},
	DS18B20: {name: "DS18B20", decode: decodeResolution},
	DS1822:  {name: "DS1822", decode: decodeResolution},
	DS2438:  {name: "DS2438", paged: true, decode: decodeSplitByte},
}

func (f Family) String() string {
	if v, ok := variants[f]; ok {
		return v.name
	}
	return "unknown"
}

// Supported reports whether readings from f can be decoded.
func (f Family) Supported() bool {
	_, ok := variants[f]
	return ok
}

// decodeCountRemain handles the 9-bit DS18S20 format. When COUNT_PER_C
// reads 16 the COUNT_REMAIN byte extends it to 12 bits.
func decodeCountRemain(sp []byte) float64 {
	raw := int16(uint16(sp[1])<<8|uint16(sp[0])) << 3
	if sp[7] == 0x10 {
		raw = (raw &^ 0x0F) + 12 - int16(sp[6])
	}
	return float64(raw) * 0.0625
}

// decodeResolution handles the configurable 9..12 bit format; low bits are
// undefined below 12-bit resolution and are cleared.
func decodeResolution(sp []byte) float64 {
	raw := int16(uint16(sp[1])<<8 | uint16(sp[0]))
	switch sp[4] & 0x60 {
	case 0x00:
		raw &^= 7
	case 0x20:
		raw &^= 3
	case 0x40:
		raw &^= 1
	}
	return float64(raw) * 0.0625
}

// decodeSplitByte handles the DS2438 page 0 layout: integer degrees in
// byte 2, a 5-bit fraction in the top of byte 1.
func decodeSplitByte(sp []byte) float64 {
	frac := float64((sp[1]>>3)&0x1F) * 0.03125
	whole := float64(int8(sp[2]))
	if sp[2] > 127 {
		return whole - frac
	}
	return whole + frac
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 { return c*1.8 + 32 }
