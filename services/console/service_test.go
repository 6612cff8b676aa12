package console

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"weatherstation-go/bus"
	"weatherstation-go/errcode"
	"weatherstation-go/types"
)

// syncBuffer is a bytes.Buffer safe for the handler and the test to share.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func waitFor(t *testing.T, buf *syncBuffer, substr string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("log never contained %q:\n%s", substr, buf.String())
}

func TestInterval(t *testing.T) {
	cases := []struct {
		payload any
		want    time.Duration
		ok      bool
	}{
		{map[string]any{"interval": float64(2)}, 2 * time.Second, true},
		{map[string]any{"interval": 0.5}, 500 * time.Millisecond, true},
		{map[string]any{"interval": float64(0)}, 0, false},
		{map[string]any{"interval": "5"}, 0, false},
		{"interval", 0, false},
	}
	for _, c := range cases {
		got, ok := interval(c.payload)
		if got != c.want || ok != c.ok {
			t.Errorf("interval(%v) = %v,%v want %v,%v", c.payload, got, ok, c.want, c.ok)
		}
	}
}

func TestConsoleLogsSnapshotsAndHeartbeat(t *testing.T) {
	buf := &syncBuffer{}
	svc := New(slog.New(slog.NewTextHandler(buf, nil)))

	b := bus.NewBus(8)
	conn := b.NewConnection("console")
	pub := b.NewConnection("test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = svc.Start(ctx, conn)

	pub.Publish(pub.NewMessage(bus.T("config", "console"), map[string]any{"interval": 0.02}, true))
	waitFor(t, buf, "msg=heartbeat")

	pub.Publish(pub.NewMessage(bus.T("weather", "snapshot"), types.Snapshot{WindSpeedMPH: 4.5}, true))
	waitFor(t, buf, "a=4.5")

	pub.Publish(pub.NewMessage(bus.T("weather", "snapshot"), types.Snapshot{
		Faults: []types.Fault{{Field: types.FieldSoilTemp, Code: errcode.NoDevice}},
	}, true))
	waitFor(t, buf, "level=WARN")
	waitFor(t, buf, "st=no_device")
}
