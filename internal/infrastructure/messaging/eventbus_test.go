package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtrack/champtrack-hub/internal/domain/shared"
)

var at = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func TestInMemoryEventBus_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(Config{})

	var order []string
	require.NoError(t, bus.Subscribe(shared.EventPointsAwarded, func(e shared.Event) error {
		order = append(order, "points")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		order = append(order, "all:"+string(e.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPointsAwardedEvent("c1", 10, 10, "manual", at)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("c1", 1, 2, "Rookie", at)))

	assert.Equal(t, []string{"points", "all:progress.points_awarded", "all:progress.level_up"}, order)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventPointsAwarded))
	assert.Equal(t, int64(3), bus.Metrics().Snapshot().TotalHandlerExecs)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(Config{})
	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("nope") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { calls++; return nil }))

	assert.NoError(t, bus.Publish(shared.NewGoalCompletedEvent("c1", "g1", 50, at)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_AsyncAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(Config{Async: true, WorkerPoolSize: 2})

	var mu sync.Mutex
	seen := 0
	require.NoError(t, bus.Subscribe(shared.EventClassCompleted, func(shared.Event) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewClassCompletedEvent("c1", "k1", "practice", 10, at)))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, 5, seen)

	assert.ErrorIs(t, bus.Publish(shared.NewClassCompletedEvent("c1", "k1", "practice", 10, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(Config{})
	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventLevelUp, nil))
}
