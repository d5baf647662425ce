package syncbus

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisRelay forwards events over a Redis pub/sub channel.
type RedisRelay struct {
	Client  *redis.Client
	Channel string
	Bus     *Bus

	mu          sync.Mutex
	pubsub      *redis.PubSub
	unsubscribe func()
	done        chan struct{}
}

func (r *RedisRelay) Start(ctx context.Context) error {
	ps := r.Client.Subscribe(ctx, r.Channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}

	r.mu.Lock()
	r.pubsub = ps
	r.done = make(chan struct{})
	r.unsubscribe = r.Bus.Subscribe(func(ev Event) {
		if ev.Remote {
			return
		}
		data, ok := encode(ev)
		if !ok {
			return
		}
		if err := r.Client.Publish(context.Background(), r.Channel, data).Err(); err != nil {
			log.Warn().Err(err).Str("key", ev.Key).Msg("Failed to relay sync event to Redis")
		}
	})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			deliverInbound(r.Bus, []byte(msg.Payload))
		}
	}()
	log.Info().Str("channel", r.Channel).Msg("Redis sync relay started")
	return nil
}

func (r *RedisRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.pubsub == nil {
		return nil
	}
	err := r.pubsub.Close()
	<-r.done
	r.pubsub = nil
	return err
}
