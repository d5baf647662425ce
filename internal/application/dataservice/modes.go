package dataservice

import (
	"context"

	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/response"
)

// Modes are the resolved feature flags. Listings and Users are on whenever Mock is.
type Modes struct {
	Mock             bool `json:"mock"`
	Listings         bool `json:"listings"`
	Users            bool `json:"users"`
	RemoteConfigured bool `json:"remoteConfigured"`
}

// ModesPatch sets individual flags; nil leaves a flag unchanged.
type ModesPatch struct {
	Mock     *bool `json:"mock"`
	Listings *bool `json:"listings"`
	Users    *bool `json:"users"`
}

func (s *Service) resolveFlag(ctx context.Context, key string, configured *bool) bool {
	var stored bool
	if s.store.Get(ctx, key, &stored) {
		return stored
	}
	if configured != nil {
		return *configured
	}
	return !s.defaults.Production
}

func (s *Service) refreshModes(ctx context.Context) {
	mock := s.resolveFlag(ctx, storage.UseMockKey, s.defaults.UseMock)
	m := Modes{
		Mock:             mock,
		Listings:         mock || s.resolveFlag(ctx, storage.UseMockListingsKey, s.defaults.UseMockListings),
		Users:            mock || s.resolveFlag(ctx, storage.UseMockUsersKey, s.defaults.UseMockUsers),
		RemoteConfigured: s.remote != nil,
	}
	s.modesMu.Lock()
	s.modes = m
	s.modesMu.Unlock()
}

func (s *Service) Modes() Modes {
	s.modesMu.RLock()
	defer s.modesMu.RUnlock()
	return s.modes
}

func (s *Service) mock() bool     { return s.Modes().Mock }
func (s *Service) mockList() bool { return s.Modes().Listings }
func (s *Service) mockUser() bool { return s.Modes().Users }

// SetModes persists the given flags and returns the newly resolved modes.
func (s *Service) SetModes(ctx context.Context, p ModesPatch) response.Result[Modes] {
	for key, v := range map[string]*bool{
		storage.UseMockKey:         p.Mock,
		storage.UseMockListingsKey: p.Listings,
		storage.UseMockUsersKey:    p.Users,
	} {
		if v == nil {
			continue
		}
		if err := s.save(ctx, key, *v); err != nil {
			return response.Fail[Modes](err)
		}
	}
	s.refreshModes(ctx)
	return response.OK(s.Modes())
}

// ClearMockCaches drops every mock collection so the next read starts from defaults.
func (s *Service) ClearMockCaches(ctx context.Context) response.Result[[]string] {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	cleared := make([]string, 0, len(storage.MockCacheKeys))
	for _, k := range storage.MockCacheKeys {
		ok := false
		if k == storage.ListingsKey {
			ok = s.listings.Reset(ctx)
		} else {
			ok = s.store.Remove(ctx, k)
		}
		if ok {
			cleared = append(cleared, k)
		}
	}
	return response.OK(cleared)
}

// StorageInfo reports storage usage.
func (s *Service) StorageInfo(ctx context.Context) response.Result[storage.Info] {
	return response.OK(s.store.Info(ctx))
}

// CleanupStorage runs the quota cleanup pass on demand.
func (s *Service) CleanupStorage(ctx context.Context) response.Result[storage.CleanupReport] {
	return response.OK(s.store.Cleanup(ctx))
}
