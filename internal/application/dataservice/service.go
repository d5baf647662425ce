package dataservice

import (
	"context"
	"errors"
	"sync"

	"souk-backend/internal/application/listings"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/pkg/clock"
	"souk-backend/internal/pkg/response"

	"github.com/rs/zerolog/log"
)

// Remote is the real marketplace API. Responses use the same envelope as the mock path.
type Remote interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// ModeDefaults are the configured fallbacks for mode flags not present in storage.
// A nil flag defers to the environment default: on, unless Production.
type ModeDefaults struct {
	UseMock         *bool
	UseMockListings *bool
	UseMockUsers    *bool
	Production      bool
}

// Context carries every dependency of the Service.
type Context struct {
	Storage        *storage.SafeStore
	Listings       *listings.Store
	Remote         Remote
	Clock          clock.Clock
	IDs            clock.IDGenerator
	Generator      *mockdata.Generator
	Defaults       ModeDefaults
	DefaultProfile domain.User
}

// Service is the data access facade used by every HTTP handler and the CLI.
// Operations never return errors: failures are reported in the result envelope.
type Service struct {
	store     *storage.SafeStore
	listings  *listings.Store
	remote    Remote
	clock     clock.Clock
	ids       clock.IDGenerator
	generator *mockdata.Generator
	defaults  ModeDefaults
	profile   domain.User

	// docMu serializes read-modify-write cycles on the non-listing documents.
	docMu sync.Mutex

	modesMu sync.RWMutex
	modes   Modes

	unsubscribe []func()
}

// New builds a Service. Init must be called before use.
func New(c Context) *Service {
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.IDs == nil {
		c.IDs = clock.UUIDGenerator{}
	}
	if c.Listings == nil {
		c.Listings = listings.NewStore(c.Storage, c.Clock, nil)
	}
	if c.Generator == nil {
		c.Generator = mockdata.NewGenerator(0, c.Clock)
	}
	if c.DefaultProfile.ID == "" {
		c.DefaultProfile = defaultProfile()
	}
	return &Service{
		store:     c.Storage,
		listings:  c.Listings,
		remote:    c.Remote,
		clock:     c.Clock,
		ids:       c.IDs,
		generator: c.Generator,
		defaults:  c.Defaults,
		profile:   c.DefaultProfile,
	}
}

func defaultProfile() domain.User {
	return domain.User{
		ID:       "1",
		Email:    "demo@souk.dz",
		Username: "demo",
		FullName: "Utilisateur Démo",
		Phone:    "0550 12 34 56",
		Wilaya:   "Alger",
		Role:     "super_admin",
		IsActive: true,
		Verified: true,
	}
}

// Init resolves the mode flags and follows flag changes made by other processes.
func (s *Service) Init(ctx context.Context) error {
	if s.store == nil {
		return errors.New("dataservice: storage is required")
	}
	s.refreshModes(ctx)
	if s.store.Bus != nil {
		s.unsubscribe = append(s.unsubscribe, s.store.Bus.Subscribe(func(syncbus.Event) {
			s.refreshModes(context.Background())
		}, storage.UseMockKey, storage.UseMockListingsKey, storage.UseMockUsersKey))
	}
	m := s.Modes()
	log.Info().Bool("mock", m.Mock).Bool("listings", m.Listings).Bool("users", m.Users).
		Bool("remote", m.RemoteConfigured).Msg("Data service initialised")
	return nil
}

// Dispose detaches every subscription made by Init.
func (s *Service) Dispose() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

// Listings exposes the listings store for subscribers.
func (s *Service) Listings() *listings.Store {
	return s.listings
}

// Storage exposes the underlying store.
func (s *Service) Storage() *storage.SafeStore {
	return s.store
}

// passthrough serves the call from the remote API when mock mode is off and a
// remote is configured. Remote failures fall back to local.
func passthrough[T any](ctx context.Context, s *Service, mock bool, method, path string, body any, local func() response.Result[T]) response.Result[T] {
	if mock || s.remote == nil {
		return local()
	}
	var out response.Result[T]
	if err := s.remote.Do(ctx, method, path, body, &out); err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Remote call failed, serving local data")
		return local()
	}
	return out
}

// save persists value under key, reporting a full store as ErrStorageFull.
func (s *Service) save(ctx context.Context, key string, value any) error {
	if !s.store.Set(ctx, key, value) {
		return domain.ErrStorageFull
	}
	return nil
}

// saveQuiet writes an index or journal key that accompanies a published mutation.
func (s *Service) saveQuiet(ctx context.Context, key string, value any) error {
	if !s.store.SetQuiet(ctx, key, value) {
		return domain.ErrStorageFull
	}
	return nil
}
