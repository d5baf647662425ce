package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/pkg/clock"

	"github.com/rs/zerolog/log"
)

// SafeStore wraps a Backend so reads, writes and removals never fail past it.
// Every successful write or removal is published on Bus when one is set.
type SafeStore struct {
	Backend Backend
	Bus     *syncbus.Bus
	Clock   clock.Clock
}

func NewSafeStore(b Backend, bus *syncbus.Bus, c clock.Clock) *SafeStore {
	if c == nil {
		c = clock.RealClock{}
	}
	return &SafeStore{Backend: b, Bus: bus, Clock: c}
}

// Get decodes key into dst. It returns false when the key is missing or unreadable.
func (s *SafeStore) Get(ctx context.Context, key string, dst any) bool {
	raw, ok := s.GetRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to parse stored item")
		return false
	}
	return true
}

// GetRaw returns the stored document for key without decoding it.
func (s *SafeStore) GetRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	v, ok, err := s.Backend.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to get stored item")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return json.RawMessage(v), true
}

// Load returns the decoded value under key, or def when it is missing or unreadable.
func Load[T any](ctx context.Context, s *SafeStore, key string, def T) T {
	var v T
	if !s.Get(ctx, key, &v) {
		return def
	}
	return v
}

// Set serializes value and persists it. A quota failure triggers one cleanup pass
// followed by a single retry.
func (s *SafeStore) Set(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to serialize item")
		return false
	}
	return s.SetRaw(ctx, key, data)
}

// SetQuiet persists value like Set without publishing the change. It is used for
// index and journal keys written alongside a published mutation.
func (s *SafeStore) SetQuiet(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to serialize item")
		return false
	}
	return s.write(ctx, key, data, false)
}

// SetRaw persists an already serialized JSON document.
func (s *SafeStore) SetRaw(ctx context.Context, key string, data []byte) bool {
	return s.write(ctx, key, data, true)
}

func (s *SafeStore) write(ctx context.Context, key string, data []byte, publish bool) bool {
	err := s.Backend.Set(ctx, key, string(data))
	if errors.Is(err, ErrQuotaExceeded) {
		log.Error().Str("key", key).Msg("Storage quota exceeded, attempting cleanup")
		s.Cleanup(ctx)
		err = s.Backend.Set(ctx, key, string(data))
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to save after cleanup")
			return false
		}
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to set stored item")
		return false
	}
	if publish {
		s.publish(key, syncbus.OpSet, data)
	}
	return true
}

// Remove deletes key. Missing keys are not an error.
func (s *SafeStore) Remove(ctx context.Context, key string) bool {
	if err := s.Backend.Remove(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove stored item")
		return false
	}
	s.publish(key, syncbus.OpRemove, nil)
	return true
}

// Keys lists every stored key, or nil when the backend cannot be read.
func (s *SafeStore) Keys(ctx context.Context) []string {
	keys, err := s.Backend.Keys(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list stored keys")
		return nil
	}
	return keys
}

func (s *SafeStore) Ping(ctx context.Context) error {
	return s.Backend.Ping(ctx)
}

// CleanupReport lists what a cleanup pass freed.
type CleanupReport struct {
	RemovedKeys []string `json:"removedKeys"`
	Truncated   []string `json:"truncated"`
}

// Cleanup frees space: expired one-time-password entries (older than an hour)
// are removed and the inquiry and saved-listing lists are cut to their bounds.
func (s *SafeStore) Cleanup(ctx context.Context) CleanupReport {
	var report CleanupReport
	now := s.Clock.Now()

	keys, err := s.Backend.Keys(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Cleanup failed")
		return report
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, otpTimePrefix) {
			continue
		}
		id := strings.TrimPrefix(k, otpTimePrefix)
		raw, ok, err := s.Backend.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		ms, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
		if err != nil || now.Sub(time.UnixMilli(ms)) <= time.Hour {
			continue
		}
		for _, victim := range []string{otpPrefix + id, k, otpVerifiedPrefix + id} {
			if err := s.Backend.Remove(ctx, victim); err == nil {
				report.RemovedKeys = append(report.RemovedKeys, victim)
				s.publish(victim, syncbus.OpRemove, nil)
			}
		}
	}

	if s.truncate(ctx, InquiriesKey, MaxInquiries) {
		report.Truncated = append(report.Truncated, InquiriesKey)
	}
	if s.truncate(ctx, SavedListingsKey, MaxSavedListings) {
		report.Truncated = append(report.Truncated, SavedListingsKey)
	}
	log.Info().Int("removed", len(report.RemovedKeys)).Strs("truncated", report.Truncated).Msg("Storage cleanup completed")
	return report
}

// truncate keeps the first max elements of the JSON array under key.
func (s *SafeStore) truncate(ctx context.Context, key string, max int) bool {
	raw, ok, err := s.Backend.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil || len(items) <= max {
		return false
	}
	data, err := json.Marshal(items[:max])
	if err != nil {
		return false
	}
	if err := s.Backend.Set(ctx, key, string(data)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to truncate stored list")
		return false
	}
	s.publish(key, syncbus.OpSet, data)
	return true
}

// Info reports storage usage.
type Info struct {
	TotalBytes int64            `json:"total"`
	TotalKB    string           `json:"totalKB"`
	TotalMB    string           `json:"totalMB"`
	ItemCount  int              `json:"itemCount"`
	Items      map[string]int64 `json:"items"`
}

func (s *SafeStore) Info(ctx context.Context) Info {
	info := Info{Items: map[string]int64{}}
	for _, k := range s.Keys(ctx) {
		v, ok, err := s.Backend.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		size := int64(len(v))
		info.Items[k] = size
		info.TotalBytes += size
		info.ItemCount++
	}
	info.TotalKB = strconv.FormatFloat(float64(info.TotalBytes)/1024, 'f', 2, 64)
	info.TotalMB = strconv.FormatFloat(float64(info.TotalBytes)/(1024*1024), 'f', 2, 64)
	return info
}

func (s *SafeStore) publish(key, op string, data []byte) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(syncbus.Event{Key: key, Op: op, Value: json.RawMessage(data), At: s.Clock.Now()})
}
