// Package pulse carries edge interrupts out of interrupt context.
//
// The handler installed on the pin only stamps the edge time and does a
// non-blocking send; a worker goroutine hands each stamp to the registered
// sink. Edges that find the queue full are counted, never waited on.
package pulse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"weatherstation-go/services/weather/internal/halcore"
	"weatherstation-go/x/timex"
)

// Sink receives edge times (monotonic ms) on the worker goroutine.
type Sink func(tsMs int64)

var ErrDuplicate = errors.New("pulse: input already registered")

type Worker struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ    chan isrEvent
	stopped chan struct{}
	now     func() int64

	mu     sync.RWMutex
	inputs map[string]*watch

	drops uint32 // ISR drop counter
}

type isrEvent struct {
	id string
	ts int64
}

type watch struct {
	pin   halcore.IRQPin
	sink  Sink
	count atomic.Uint64
}

// New creates a worker with an ISR queue of isrBuf edges (default 64).
func New(isrBuf int) *Worker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	return &Worker{
		isrQ:    make(chan isrEvent, isrBuf),
		stopped: make(chan struct{}),
		now:     timex.Millis,
		inputs:  map[string]*watch{},
	}
}

// Start runs the delivery loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.dispatch(ev)
			}
		}
	}()
}

// Stopped is closed once the delivery loop has exited.
func (w *Worker) Stopped() <-chan struct{} { return w.stopped }

// Register configures pin as an input and routes its edges to sink.
// The returned func detaches the interrupt.
func (w *Worker) Register(id string, pin halcore.IRQPin, pull halcore.Pull, edge halcore.Edge, sink Sink) (func(), error) {
	if edge == halcore.EdgeNone {
		return func() {}, nil
	}
	w.mu.Lock()
	if _, dup := w.inputs[id]; dup {
		w.mu.Unlock()
		return nil, ErrDuplicate
	}
	wh := &watch{pin: pin, sink: sink}
	w.inputs[id] = wh
	w.mu.Unlock()

	if err := pin.ConfigureInput(pull); err != nil {
		w.remove(id)
		return nil, err
	}
	// ISR handler: timestamp + non-blocking channel send.
	handler := func() {
		select {
		case w.isrQ <- isrEvent{id: id, ts: w.now()}:
		default:
			atomic.AddUint32(&w.drops, 1) // protect ISR path
		}
	}
	if err := pin.SetIRQ(edge, handler); err != nil {
		w.remove(id)
		return nil, err
	}
	return func() {
		_ = pin.ClearIRQ()
		w.remove(id)
	}, nil
}

func (w *Worker) remove(id string) {
	w.mu.Lock()
	delete(w.inputs, id)
	w.mu.Unlock()
}

func (w *Worker) dispatch(ev isrEvent) {
	w.mu.RLock()
	wh := w.inputs[ev.id]
	w.mu.RUnlock()
	if wh == nil {
		return
	}
	wh.count.Add(1)
	wh.sink(ev.ts)
}

// ISRDrops returns edges lost because the queue was full.
func (w *Worker) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }

// Count returns edges delivered for id.
func (w *Worker) Count(id string) uint64 {
	w.mu.RLock()
	wh := w.inputs[id]
	w.mu.RUnlock()
	if wh == nil {
		return 0
	}
	return wh.count.Load()
}
