package syncbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	OpSet    = "set"
	OpRemove = "remove"
)

// Event describes a change to one persisted key. Subscribers re-read the key from
// storage instead of trusting Value, which is informational.
type Event struct {
	Key    string          `json:"key"`
	Op     string          `json:"op"`
	Value  json.RawMessage `json:"value,omitempty"`
	Origin string          `json:"origin"`
	At     time.Time       `json:"at"`
	// Remote is set on events that arrived from another process through a relay.
	Remote bool `json:"-"`
}

// Handler receives change events. It runs synchronously on the publisher's goroutine.
type Handler func(Event)

type subscription struct {
	keys    map[string]struct{}
	handler Handler
}

// Bus fans change events out to in-process subscribers. Delivery is best effort:
// no replay, no ordering guarantee across keys, and a panicking handler is logged and skipped.
type Bus struct {
	origin string

	mu   sync.RWMutex
	next uint64
	subs map[uint64]subscription
}

// New creates a Bus with a random origin id identifying this process to relays.
func New() *Bus {
	return &Bus{origin: uuid.New().String(), subs: make(map[uint64]subscription)}
}

// Origin returns the id stamped on locally published events.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers h for the given keys, or for every key when none are given.
// The returned func detaches the handler and is safe to call more than once.
func (b *Bus) Subscribe(h Handler, keys ...string) func() {
	sub := subscription{handler: h}
	if len(keys) > 0 {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of attached handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every matching subscriber before returning.
func (b *Bus) Publish(ev Event) {
	if ev.Origin == "" {
		ev.Origin = b.origin
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.keys != nil {
			if _, ok := s.keys[ev.Key]; !ok {
				continue
			}
		}
		targets = append(targets, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		dispatch(h, ev)
	}
}

func dispatch(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("key", ev.Key).Interface("panic", r).Msg("Sync subscriber panicked")
		}
	}()
	h(ev)
}
