// Package config publishes the embedded per-device configuration.
//
// Each top-level key of the device's JSON document is published retained
// on config/<key>, decoded into generic JSON values (map[string]any,
// []any, float64, string, bool).
package config

import (
	"context"
	"encoding/json"
	"log/slog"

	"weatherstation-go/bus"
	"weatherstation-go/errcode"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey is the context key carrying the device ID.
const CtxDeviceKey ctxKey = "device"

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  *slog.Logger
}

// NewConfigService returns the publisher. A nil logger means slog.Default().
func NewConfigService(log *slog.Logger) *ConfigService {
	if log == nil {
		log = slog.Default()
	}
	return &ConfigService{Name: serviceName, log: log.With("svc", serviceName)}
}

// publishConfig reads the device config from embedded data and publishes
// it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: serviceName, Msg: "missing device ID in context"}
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.NotReady, Op: serviceName, Msg: "no embedded config for device " + device}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, serviceName, err)
	}
	if m == nil {
		return &errcode.E{C: errcode.InvalidPayload, Op: serviceName, Msg: "embedded config is not a JSON object"}
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	s.log.Info("config published", "device", device, "keys", len(m))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Error("config not published", "err", err)
		}
	}()
}
