// Firmware entry point: bus, embedded config, console and the weather
// station service.
package main

import (
	"context"
	"log/slog"
	"time"

	"weatherstation-go/bus"
	"weatherstation-go/services/config"
	"weatherstation-go/services/console"
	"weatherstation-go/services/weather"
)

func main() {
	// Allow USB CDC to enumerate before we log.
	time.Sleep(2 * time.Second)

	log := slog.New(slog.NewTextHandler(consoleWriter(), &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)
	log.Info("boot", "device", deviceID)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)
	b := bus.NewBus(8)

	config.NewConfigService(log).Start(ctx, b.NewConnection("config"))
	_ = console.New(log).Start(ctx, b.NewConnection("console"))
	weather.Run(ctx, b.NewConnection("weather"), log)
}
