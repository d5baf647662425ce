package events

import (
	"bufio"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"souk-backend/internal/infrastructure/syncbus"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	defaultHeartbeat = 25 * time.Second
	bufferSize       = 64
)

// Handlers stream sync bus events to browsers as Server-Sent Events.
type Handlers struct {
	Bus       *syncbus.Bus
	Heartbeat time.Duration
	// Done ends every open stream when closed, typically on shutdown.
	Done <-chan struct{}
}

// GET /api/v1/events?keys=mock_listings,theme
func (h *Handlers) Stream(c *fiber.Ctx) error {
	if h.Bus == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Sync bus unavailable")
	}
	keys := parseKeys(c.Query("keys"))
	ch := make(chan syncbus.Event, bufferSize)
	unsubscribe := h.Bus.Subscribe(func(ev syncbus.Event) {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("key", ev.Key).Msg("SSE client too slow, event dropped")
		}
	}, keys...)

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	done := h.Done

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		var id uint64
		if _, err := w.WriteString(": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case ev := <-ch:
				id++
				if err := writeEvent(w, id, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil || w.Flush() != nil {
					return
				}
			case <-done:
				for {
					select {
					case ev := <-ch:
						id++
						if writeEvent(w, id, ev) != nil {
							return
						}
					default:
						return
					}
				}
			}
		}
	}))
	return nil
}

// writeEvent writes one "change" frame and flushes it. An error means the client went away.
func writeEvent(w *bufio.Writer, id uint64, ev syncbus.Event) error {
	payload, err := json.Marshal(frame{Key: ev.Key, Op: ev.Op, Origin: ev.Origin, Remote: ev.Remote, At: ev.At})
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("id: ")
	b.WriteString(strconv.FormatUint(id, 10))
	b.WriteString("\nevent: change\ndata: ")
	b.Write(payload)
	b.WriteString("\n\n")
	if _, err := w.WriteString(b.String()); err != nil {
		return err
	}
	return w.Flush()
}

// frame is what browsers receive; values stay server side and clients re-read the key.
type frame struct {
	Key    string    `json:"key"`
	Op     string    `json:"op"`
	Origin string    `json:"origin"`
	Remote bool      `json:"remote"`
	At     time.Time `json:"at"`
}

func parseKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
