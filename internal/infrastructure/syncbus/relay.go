package syncbus

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Relay mirrors bus events to other processes sharing the same store.
type Relay interface {
	Start(ctx context.Context) error
	Close() error
}

func encode(ev Event) ([]byte, bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("key", ev.Key).Msg("Failed to encode sync event")
		return nil, false
	}
	return data, true
}

// deliverInbound decodes a relayed message and republishes it locally unless it
// originated from this bus.
func deliverInbound(bus *Bus, data []byte) bool {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Warn().Err(err).Msg("Dropping malformed sync event")
		return false
	}
	if ev.Origin == "" || ev.Origin == bus.Origin() {
		return false
	}
	ev.Remote = true
	bus.Publish(ev)
	return true
}
