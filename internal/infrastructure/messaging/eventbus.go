// Package messaging delivers domain events raised by the store to in-process
// handlers.
package messaging

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus fans events out to handlers registered per type and to
// catch-all handlers. Handler errors and panics are logged, never returned to
// the publisher.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	async       bool
	workerPool  chan struct{}
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
	wg          sync.WaitGroup
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// Config configures an InMemoryEventBus.
type Config struct {
	// Async runs handlers on a bounded worker pool instead of the caller's goroutine.
	Async bool

	// WorkerPoolSize bounds concurrent async handlers.
	WorkerPoolSize int

	Logger *logger.Logger
}

// NewInMemoryEventBus creates a bus. The zero Config gives a synchronous bus.
func NewInMemoryEventBus(cfg Config) *InMemoryEventBus {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 8
	}
	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		async:      cfg.Async,
		workerPool: make(chan struct{}, cfg.WorkerPoolSize),
		log:        cfg.Logger.Named("events"),
		metrics:    NewEventBusMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to every matching handler, type-specific first.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	if b.async {
		b.wg.Add(len(handlers))
	}
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())
	for _, h := range handlers {
		if b.async {
			go func(h shared.EventHandler) {
				defer b.wg.Done()
				b.workerPool <- struct{}{}
				defer func() { <-b.workerPool }()
				b.run(event, h)
			}(h)
			continue
		}
		b.run(event, h)
	}
	return nil
}

func (b *InMemoryEventBus) run(event shared.Event, h shared.EventHandler) {
	start := time.Now()
	err := safeCall(event, h)
	elapsed := time.Since(start)
	b.metrics.RecordHandlerExecution(event.EventType(), elapsed, err == nil)

	if err != nil {
		b.log.Error("event handler failed",
			logger.String("event_type", string(event.EventType())),
			logger.EntityID(event.AggregateID()),
			logger.Latency(elapsed),
			logger.Err(err),
		)
	}
}

func safeCall(event shared.Event, h shared.EventHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, p, debug.Stack())
		}
	}()
	return h(event)
}

// Close rejects new events and waits for running async handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns the bus counters.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// LogHandler logs every event at info level with its payload.
func LogHandler(log *logger.Logger) shared.EventHandler {
	return func(event shared.Event) error {
		fields := []logger.Field{
			logger.String("event_type", string(event.EventType())),
			logger.EntityID(event.AggregateID()),
		}
		for k, v := range event.Payload() {
			fields = append(fields, logger.F(k, v))
		}
		log.Info("event", fields...)
		return nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events and handler runs.
type EventBusMetrics struct {
	mu sync.RWMutex

	published        map[shared.EventType]int64
	handlerRuns      int64
	handlerFailures  int64
	handlerTotalTime time.Duration
}

// NewEventBusMetrics creates new metrics tracker.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish records a publish event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandlerExecution records a handler execution.
func (m *EventBusMetrics) RecordHandlerExecution(_ shared.EventType, d time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlerRuns++
	m.handlerTotalTime += d
	if !success {
		m.handlerFailures++
	}
}

// Published returns how many events of the type were published.
func (m *EventBusMetrics) Published(eventType shared.EventType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published[eventType]
}

// Snapshot returns a copy of current metrics.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, n := range m.published {
		total += n
	}
	snap := EventBusMetricsSnapshot{
		TotalPublished:    total,
		TotalHandlerExecs: m.handlerRuns,
		HandlerFailures:   m.handlerFailures,
	}
	if m.handlerRuns > 0 {
		snap.AverageHandlerDuration = m.handlerTotalTime / time.Duration(m.handlerRuns)
	}
	return snap
}

// EventBusMetricsSnapshot is a point-in-time snapshot of metrics.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64
	TotalHandlerExecs      int64
	HandlerFailures        int64
	AverageHandlerDuration time.Duration
}
