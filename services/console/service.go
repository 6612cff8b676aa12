// Package console writes station activity to the log: one line per
// snapshot and a periodic heartbeat.
package console

import (
	"context"
	"log/slog"
	"time"

	"weatherstation-go/bus"
	"weatherstation-go/types"
	"weatherstation-go/x/timex"
)

var (
	topicConfigConsole = bus.T("config", "console")
	topicSnapshot      = bus.T("weather", "snapshot")
)

const defaultInterval = 30 * time.Second

type Service struct {
	log *slog.Logger
	now func() int64 // monotonic ms

	snapshots uint64
}

// New returns the console service. A nil logger means slog.Default().
func New(log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log.With("svc", "console"), now: timex.Millis}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigConsole)
	defer conn.Unsubscribe(cfgSub)
	snapSub := conn.Subscribe(topicSnapshot)
	defer conn.Unsubscribe(snapSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			s.log.Info("heartbeat", "uptime_s", s.now()/1000, "snapshots", s.snapshots)
		case msg := <-cfgSub.Channel():
			if iv, ok := interval(msg.Payload); ok {
				tick.Reset(iv)
				s.log.Info("heartbeat interval set", "interval", iv)
			}
		case msg := <-snapSub.Channel():
			snap, ok := msg.Payload.(types.Snapshot)
			if !ok {
				continue
			}
			s.snapshots++
			s.logSnapshot(snap)
		}
	}
}

// interval reads {"interval": seconds} from a config payload.
func interval(payload any) (time.Duration, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m["interval"].(float64)
	if !ok || v <= 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

func (s *Service) logSnapshot(snap types.Snapshot) {
	attrs := []any{
		types.FieldHumidity, snap.Humidity,
		types.FieldTemperature, snap.TemperatureF,
		types.FieldPressure, snap.PressureMmHg,
		types.FieldSoilTemp, snap.SoilTemperatureF,
		types.FieldSoilMoisture, snap.SoilMoisturePercent,
		types.FieldWindSpeed, snap.WindSpeedMPH,
		types.FieldWindGust, snap.WindGustMPH,
		types.FieldWindDirection, snap.WindDirectionDegrees,
		types.FieldBatteryVolts, snap.BatteryVoltage,
		types.FieldBatterySoC, snap.BatterySoCPercent,
	}
	if len(snap.Faults) > 0 {
		var bad []string
		for _, f := range snap.Faults {
			bad = append(bad, f.Field+"="+string(f.Code))
		}
		attrs = append(attrs, "faults", bad)
		s.log.Warn("snapshot", attrs...)
		return
	}
	s.log.Info("snapshot", attrs...)
}

// Start runs the console loop in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
