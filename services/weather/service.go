// Package weather runs the station's acquisition cycle.
//
// Each cycle reads the environment sensor, lets the anemometer accrue for
// its window, reads the soil probes and the vane, then the battery gauge,
// and publishes one types.Snapshot retained on weather/snapshot. Cycles
// repeat every interval_s and can be requested on weather/cmd/acquire.
package weather

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"weatherstation-go/bus"
	"weatherstation-go/errcode"
	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/services/weather/internal/platform"
	"weatherstation-go/services/weather/internal/pulse"
	"weatherstation-go/types"
	"weatherstation-go/x/timex"
)

var (
	topicConfig   = bus.T("config", "weather")
	topicSnapshot = bus.T("weather", "snapshot")
	topicState    = bus.T("weather", "state")
	topicAcquire  = bus.T("weather", "cmd", "acquire")
	topicStatus   = bus.T("weather", "cmd", "status")
)

const windInput = "anemometer"

// State is published retained on weather/state.
type State struct {
	Level  string `json:"level"` // idle | ready | acquiring | error | stopped
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	TSms   int64  `json:"ts_ms"`
}

// Status answers weather/cmd/status.
type Status struct {
	Cycles     uint64 `json:"cycles"`
	Busy       bool   `json:"busy"`
	IntervalS  int    `json:"interval_s"`
	WindPulses uint64 `json:"wind_pulses"`
	ISRDrops   uint32 `json:"isr_drops"`
	LastTSms   int64  `json:"last_ts_ms"`
}

type Service struct {
	conn  *bus.Connection
	board halcore.Board
	log   *slog.Logger

	cfg     types.StationConfig
	pending *types.StationConfig // applied once the running cycle ends
	rig     *rig
	pulses  *pulse.Worker
	unpin   func()

	cfgSub, acqSub, statSub *bus.Subscription

	results chan types.Snapshot
	busy    bool
	waiters []*bus.Message
	timer   *time.Timer

	cycles   uint64
	lastTS   int64
	lastDrop uint32
}

// New creates the service with the default station config and subscribes
// to its inputs, so requests published before Run starts are queued. A nil
// logger means slog.Default().
func New(conn *bus.Connection, board halcore.Board, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		conn:    conn,
		board:   board,
		log:     log.With("svc", "weather"),
		cfg:     types.DefaultStationConfig(),
		pulses:  pulse.New(64),
		cfgSub:  conn.Subscribe(topicConfig),
		acqSub:  conn.Subscribe(topicAcquire),
		statSub: conn.Subscribe(topicStatus),
		results: make(chan types.Snapshot, 1),
	}
}

// Run blocks until ctx is cancelled. A cycle in flight when ctx ends is
// abandoned; its result is discarded.
func (s *Service) Run(ctx context.Context) {
	s.pulses.Start(ctx)
	if s.board.Drive != nil {
		go s.board.Drive(ctx)
	}

	defer s.conn.Unsubscribe(s.cfgSub)
	defer s.conn.Unsubscribe(s.acqSub)
	defer s.conn.Unsubscribe(s.statSub)

	s.apply(s.cfg)

	s.timer = time.NewTimer(0)
	defer s.timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.unpin != nil {
				s.unpin()
			}
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-s.cfgSub.Channel():
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.log.Warn("config rejected", "err", err)
				s.publishState("error", "config_rejected", err)
				continue
			}
			if s.busy {
				s.pending = &cfg
				continue
			}
			s.apply(cfg)
			timex.ResetTimer(s.timer, 0)

		case msg := <-s.acqSub.Channel():
			s.waiters = append(s.waiters, msg)
			s.startCycle()

		case msg := <-s.statSub.Channel():
			s.conn.Reply(msg, s.status(), false)

		case <-s.timer.C:
			s.startCycle()

		case snap := <-s.results:
			s.finishCycle(snap)
		}
	}
}

// startCycle launches an acquisition unless one is already running.
func (s *Service) startCycle() {
	if s.busy {
		return
	}
	s.busy = true
	s.publishState("acquiring", "cycle_started", nil)
	st := s.rig.station
	go func() { s.results <- st.Acquire() }()
}

func (s *Service) finishCycle(snap types.Snapshot) {
	s.busy = false
	s.cycles++
	s.lastTS = snap.TSms

	for _, f := range snap.Faults {
		s.log.Warn("field fault", "field", f.Field, "code", string(f.Code), "detail", f.Detail)
	}
	if d := s.pulses.ISRDrops(); d != s.lastDrop {
		s.log.Warn("anemometer edges dropped", "new", d-s.lastDrop, "total", d)
		s.lastDrop = d
	}
	s.log.Debug("cycle complete", "cycle", s.cycles, "faults", len(snap.Faults))

	s.conn.Publish(s.conn.NewMessage(topicSnapshot, snap, true))
	for _, w := range s.waiters {
		s.conn.Reply(w, snap, false)
	}
	s.waiters = s.waiters[:0]

	if s.pending != nil {
		s.apply(*s.pending)
		s.pending = nil
	}
	s.publishState("ready", "cycle_complete", nil)
	if s.cfg.IntervalS > 0 {
		timex.ResetTimer(s.timer, time.Duration(s.cfg.IntervalS)*time.Second)
	} else if !s.timer.Stop() {
		timex.DrainTimer(s.timer)
	}
}

// apply rebuilds the station for cfg and moves the anemometer input onto
// the new accumulator.
func (s *Service) apply(cfg types.StationConfig) {
	if s.unpin != nil {
		s.unpin()
		s.unpin = nil
	}
	r, problems := build(s.board, cfg)
	for _, err := range problems {
		s.log.Warn("station wiring", "err", err, "code", string(errcode.Of(err)))
	}
	if r.windPin != nil {
		unpin, err := s.pulses.Register(windInput, r.windPin, halcore.PullUp, halcore.EdgeFalling, r.wind.OnPulse)
		if err != nil {
			s.log.Warn("anemometer interrupt", "err", err)
		} else {
			s.unpin = unpin
		}
	}
	s.cfg, s.rig = cfg, r
	s.log.Info("configured",
		"interval_s", cfg.IntervalS,
		"probe", cfg.Probe.Mode,
		"anemometer_pin", cfg.Anemometer.Pin,
		"problems", len(problems))
	s.publishState("ready", "configured", nil)
}

func (s *Service) status() Status {
	return Status{
		Cycles:     s.cycles,
		Busy:       s.busy,
		IntervalS:  s.cfg.IntervalS,
		WindPulses: s.pulses.Count(windInput),
		ISRDrops:   s.pulses.ISRDrops(),
		LastTSms:   s.lastTS,
	}
}

func (s *Service) publishState(level, status string, err error) {
	st := State{Level: level, Status: status, TSms: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

// decodeConfig accepts a typed config, raw JSON, or the generic map the
// config service publishes. Keys not present keep their defaults.
func decodeConfig(payload any) (types.StationConfig, error) {
	cfg := types.DefaultStationConfig()
	var raw []byte
	switch p := payload.(type) {
	case types.StationConfig:
		cfg = p
	case *types.StationConfig:
		if p == nil {
			return cfg, &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: "nil config"}
		}
		cfg = *p
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	case map[string]any:
		b, err := json.Marshal(p)
		if err != nil {
			return cfg, errcode.Wrap(errcode.InvalidPayload, "config", err)
		}
		raw = b
	default:
		return cfg, &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: "unexpected payload type"}
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, errcode.Wrap(errcode.InvalidPayload, "config", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NewOnPlatform creates the service on the platform's default board.
func NewOnPlatform(conn *bus.Connection, log *slog.Logger) *Service {
	return New(conn, platform.DefaultBoard(), log)
}

// Run drives the platform's default board until ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection, log *slog.Logger) {
	NewOnPlatform(conn, log).Run(ctx)
}
