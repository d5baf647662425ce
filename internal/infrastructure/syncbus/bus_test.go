package syncbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToMatchingSubscribers(t *testing.T) {
	bus := New()
	var all, listings, orders []string
	bus.Subscribe(func(ev Event) { all = append(all, ev.Key) })
	bus.Subscribe(func(ev Event) { listings = append(listings, ev.Key) }, "mock_listings")
	bus.Subscribe(func(ev Event) { orders = append(orders, ev.Key) }, "mock_orders")

	bus.Publish(Event{Key: "mock_listings", Op: OpSet})
	bus.Publish(Event{Key: "user", Op: OpRemove})

	assert.Equal(t, []string{"mock_listings", "user"}, all)
	assert.Equal(t, []string{"mock_listings"}, listings)
	assert.Empty(t, orders)
}

func TestBus_StampsOriginAndTime(t *testing.T) {
	bus := New()
	var got Event
	bus.Subscribe(func(ev Event) { got = ev })
	bus.Publish(Event{Key: "k", Op: OpSet})
	assert.Equal(t, bus.Origin(), got.Origin)
	assert.False(t, got.At.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	calls := 0
	unsub := bus.Subscribe(func(Event) { calls++ })
	assert.Equal(t, 1, bus.Subscribers())
	bus.Publish(Event{Key: "k"})
	unsub()
	unsub()
	bus.Publish(Event{Key: "k"})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBus_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := New()
	delivered := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { delivered = true })
	assert.NotPanics(t, func() { bus.Publish(Event{Key: "k"}) })
	assert.True(t, delivered)
}

func TestDeliverInbound_SkipsOwnOriginAndGarbage(t *testing.T) {
	bus := New()
	var got []Event
	bus.Subscribe(func(ev Event) { got = append(got, ev) })

	own, _ := json.Marshal(Event{Key: "k", Origin: bus.Origin()})
	assert.False(t, deliverInbound(bus, own))
	assert.False(t, deliverInbound(bus, []byte("{not json")))

	foreign, _ := json.Marshal(Event{Key: "k", Op: OpSet, Origin: "other"})
	assert.True(t, deliverInbound(bus, foreign))
	require.Len(t, got, 1)
	assert.True(t, got[0].Remote)
	assert.Equal(t, "other", got[0].Origin)
}

func TestRedisRelay_ForwardsBetweenProcesses(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	newRelay := func() (*Bus, *RedisRelay) {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		bus := New()
		return bus, &RedisRelay{Client: rdb, Channel: "souk.sync", Bus: bus}
	}
	busA, relayA := newRelay()
	busB, relayB := newRelay()
	require.NoError(t, relayA.Start(ctx))
	require.NoError(t, relayB.Start(ctx))
	defer relayA.Close()
	defer relayB.Close()

	var mu sync.Mutex
	var seenA, seenB []Event
	busA.Subscribe(func(ev Event) { mu.Lock(); seenA = append(seenA, ev); mu.Unlock() })
	busB.Subscribe(func(ev Event) { mu.Lock(); seenB = append(seenB, ev); mu.Unlock() }, "mock_listings")

	busA.Publish(Event{Key: "mock_listings", Op: OpSet, Value: json.RawMessage(`[]`)})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seenB) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seenB[0].Remote)
	assert.Equal(t, busA.Origin(), seenB[0].Origin)
	assert.JSONEq(t, `[]`, string(seenB[0].Value))
	require.Len(t, seenA, 1)
	assert.False(t, seenA[0].Remote)
}
