package weather

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"weatherstation-go/bus"
	"weatherstation-go/errcode"
	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/services/weather/internal/platform"
	"weatherstation-go/types"
)

// fastConfig keeps every blocking window short.
func fastConfig() types.StationConfig {
	c := types.DefaultStationConfig()
	c.IntervalS = 0
	c.Probe.ConversionMs = 1
	c.Anemometer.WindowMs = 30
	c.Vane.Samples = 3
	c.Vane.SpacingMs = 1
	c.Soil.SettleMs = 1
	return c
}

func quiet() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestDecodeConfig(t *testing.T) {
	cfg, err := decodeConfig(map[string]any{
		"interval_s": float64(30),
		"probe":      map[string]any{"mode": "uart", "uart": "uart0"},
	})
	if err != nil {
		t.Fatal(err)
	}
	def := types.DefaultStationConfig()
	if cfg.IntervalS != 30 || cfg.Probe.Mode != "uart" || cfg.Probe.UART != "uart0" {
		t.Fatalf("decoded %+v", cfg)
	}
	if cfg.Probe.ConversionMs != def.Probe.ConversionMs || cfg.Anemometer != def.Anemometer {
		t.Fatal("missing keys did not keep defaults")
	}

	if _, err := decodeConfig([]byte(`{"probe":{"mode":"spi"}}`)); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("invalid mode err = %v", err)
	}
	if _, err := decodeConfig([]byte(`{`)); errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("bad json err = %v", err)
	}
	if _, err := decodeConfig(42); errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("wrong type err = %v", err)
	}
	if got, err := decodeConfig(fastConfig()); err != nil || got.Vane.Samples != 3 {
		t.Fatalf("typed config: %+v %v", got, err)
	}
}

func TestBuildOnSimulatedBoard(t *testing.T) {
	r, problems := build(platform.NewSim().Board(), fastConfig())
	if len(problems) != 0 {
		t.Fatalf("problems: %v", problems)
	}
	if r.windPin == nil {
		t.Fatal("anemometer pin has no interrupt")
	}
	s := r.station.Acquire()
	if len(s.Faults) != 0 {
		t.Fatalf("faults: %+v", s.Faults)
	}
	if s.BatteryVoltage < 4.14 || s.BatteryVoltage > 4.16 || s.BatterySoCPercent != 87.5 {
		t.Errorf("battery v=%v c=%v", s.BatteryVoltage, s.BatterySoCPercent)
	}
	if s.SoilTemperatureF != 58.1 {
		t.Errorf("st = %v, want 58.1", s.SoilTemperatureF)
	}
	if s.SoilMoisturePercent < 43 || s.SoilMoisturePercent > 45 {
		t.Errorf("m = %d", s.SoilMoisturePercent)
	}
	if s.TemperatureF < 70 || s.TemperatureF > 85 || s.Humidity < 30 || s.Humidity > 70 {
		t.Errorf("env t=%v h=%v", s.TemperatureF, s.Humidity)
	}
	if s.PressureMmHg < 28 || s.PressureMmHg > 31 {
		t.Errorf("p = %v", s.PressureMmHg)
	}
}

func TestBuildReportsMissingHardware(t *testing.T) {
	cfg := fastConfig()
	cfg.Env.ID = "i2c9"
	cfg.Vane.ADCPin = 4
	r, problems := build(halcore.Board{}, cfg)
	if len(problems) == 0 {
		t.Fatal("no problems reported for an empty board")
	}
	s := r.station.Acquire()
	if f, _ := s.FaultFor(types.FieldHumidity); f.Code != errcode.UnknownBus {
		t.Errorf("env fault = %+v", f)
	}
	for _, field := range []string{types.FieldSoilTemp, types.FieldSoilMoisture, types.FieldWindDirection} {
		if f, _ := s.FaultFor(field); f.Code != errcode.Unsupported {
			t.Errorf("%s fault = %+v", field, f)
		}
	}
}

// runService starts a service on the simulated board and returns a client
// connection.
func runService(t *testing.T, cfg types.StationConfig) (*bus.Connection, *platform.Sim) {
	t.Helper()
	b := bus.NewBus(8)
	sim := platform.NewSim()
	board := sim.Board()
	board.Drive = nil // edges are injected by the test

	svc := New(b.NewConnection("weather"), board, quiet())
	svc.cfg = cfg
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { svc.Run(ctx); close(done) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("service did not stop")
		}
	})
	return b.NewConnection("client"), sim
}

func TestServiceAcquireRequest(t *testing.T) {
	client, _ := runService(t, fastConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rep, err := client.RequestWait(ctx, client.NewMessage(topicAcquire, nil, false))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	snap, ok := rep.Payload.(types.Snapshot)
	if !ok {
		t.Fatalf("reply payload %T", rep.Payload)
	}
	if snap.TSms == 0 || snap.BatterySoCPercent != 87.5 {
		t.Fatalf("snapshot = %+v", snap)
	}

	sub := client.Subscribe(topicSnapshot)
	defer client.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		if !m.Retained {
			t.Fatal("snapshot not retained")
		}
	case <-time.After(time.Second):
		t.Fatal("no retained snapshot")
	}
}

func TestServiceQueuesRequestsBeforeRun(t *testing.T) {
	b := bus.NewBus(8)
	board := platform.NewSim().Board()
	board.Drive = nil
	svc := New(b.NewConnection("weather"), board, quiet())
	svc.cfg = fastConfig()

	client := b.NewConnection("client")
	reply := client.Request(client.NewMessage(topicAcquire, nil, false))
	defer client.Unsubscribe(reply)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { svc.Run(ctx); close(done) }()
	defer func() { cancel(); <-done }()

	select {
	case m := <-reply.Channel():
		if _, ok := m.Payload.(types.Snapshot); !ok {
			t.Fatalf("reply payload %T", m.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("acquire sent before Run was never answered")
	}
}

func TestServiceCountsWindPulses(t *testing.T) {
	cfg := fastConfig()
	cfg.Anemometer.WindowMs = 400
	client, sim := runService(t, cfg)

	pin := sim.Pins.Pin(cfg.Anemometer.Pin)
	deadline := time.Now().Add(time.Second)
	for !pin.HasIRQ() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !pin.HasIRQ() {
		t.Fatal("anemometer interrupt never attached")
	}

	stop := make(chan struct{})
	go func() {
		tk := time.NewTicker(50 * time.Millisecond)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				pin.Pulse()
			}
		}
	}()
	defer close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var snap types.Snapshot
	for snap.WindSpeedMPH == 0 {
		rep, err := client.RequestWait(ctx, client.NewMessage(topicAcquire, nil, false))
		if err != nil {
			t.Fatalf("no wind measured: %v", err)
		}
		snap = rep.Payload.(types.Snapshot)
	}
	if snap.WindGustMPH < snap.WindSpeedMPH {
		t.Fatalf("gust %v < avg %v", snap.WindGustMPH, snap.WindSpeedMPH)
	}

	rep, err := client.RequestWait(ctx, client.NewMessage(topicStatus, nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if st := rep.Payload.(Status); st.WindPulses == 0 || st.Cycles == 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestServiceRejectsBadConfig(t *testing.T) {
	client, _ := runService(t, fastConfig())
	states := client.Subscribe(topicState)
	defer client.Unsubscribe(states)

	client.Publish(client.NewMessage(topicConfig, map[string]any{"vane": map[string]any{"samples": float64(0)}}, false))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-states.Channel():
			if st := m.Payload.(State); st.Status == "config_rejected" {
				if st.Level != "error" || st.Error == "" {
					t.Fatalf("state = %+v", st)
				}
				return
			}
		case <-deadline:
			t.Fatal("no config_rejected state")
		}
	}
}
