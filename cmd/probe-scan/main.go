//go:build rp2040 || rp2350

// Command probe-scan lists the temperature probes on a UART-driven 1-Wire
// line (TX GP8, RX GP9 on UART1) and reads each one every few seconds.
// Output goes to the USB console.
package main

import (
	"log/slog"
	"machine"
	"os"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"weatherstation-go/drivers/ds18x20"
	"weatherstation-go/drivers/onewire"
	"weatherstation-go/errcode"
)

func main() {
	time.Sleep(1500 * time.Millisecond)
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	hw := uartx.UART1
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP8,
		RX:       machine.GP9,
	})
	r := ds18x20.New(onewire.New(onewire.NewUART(hw)), ds18x20.Config{IgnoreScratchpadCRC: true})

	for {
		readings, err := r.ReadAll()
		for _, rd := range readings {
			log.Info("probe",
				"rom", rd.Addr.String(),
				"family", rd.Family.String(),
				"c", rd.Celsius,
				"f", rd.Fahrenheit(),
				"crc_ok", rd.CRCOK)
		}
		if err != nil {
			log.Warn("scan", "err", err, "code", string(errcode.Of(err)))
		}
		time.Sleep(5 * time.Second)
	}
}
