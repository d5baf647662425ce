package syncbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NatsRelay forwards events over a NATS subject.
type NatsRelay struct {
	Conn    *nats.Conn
	Subject string
	Bus     *Bus

	mu          sync.Mutex
	sub         *nats.Subscription
	unsubscribe func()
}

// ConnectNATS dials the server with the logging handlers used across services.
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			log.Error().Err(err).Str("subject", subject).Msg("NATS error")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

func (r *NatsRelay) Start(_ context.Context) error {
	sub, err := r.Conn.Subscribe(r.Subject, func(m *nats.Msg) {
		deliverInbound(r.Bus, m.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.Subject, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sub = sub
	r.unsubscribe = r.Bus.Subscribe(func(ev Event) {
		if ev.Remote {
			return
		}
		data, ok := encode(ev)
		if !ok {
			return
		}
		if err := r.Conn.Publish(r.Subject, data); err != nil {
			log.Warn().Err(err).Str("key", ev.Key).Msg("Failed to relay sync event to NATS")
		}
	})
	log.Info().Str("subject", r.Subject).Msg("NATS sync relay started")
	return nil
}

func (r *NatsRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.sub == nil {
		return nil
	}
	err := r.sub.Unsubscribe()
	r.sub = nil
	return err
}
