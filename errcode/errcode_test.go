package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Checksum, Checksum},
		{"wrapped code", fmt.Errorf("ds18x20: %w", NoDevice), NoDevice},
		{"E value", &E{C: UnsupportedDevice, Op: "decode"}, UnsupportedDevice},
		{"wrapped E", fmt.Errorf("probe: %w", Wrap(Timeout, "read", errors.New("slow"))), Timeout},
		{"foreign", errors.New("boom"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestEError(t *testing.T) {
	e := Wrap(Checksum, "rom", errors.New("crc 0x12 != 0x34"))
	if got, want := e.Error(), "rom: checksum: crc 0x12 != 0x34"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(Wrap(NoDevice, "search", NoDevice), NoDevice) {
		t.Fatal("expected errors.Is to find the wrapped code")
	}
	if got := Wrap(NoDevice, "", NoDevice).Error(); got != "no_device" {
		t.Fatalf("Error() = %q, want no_device", got)
	}
}
