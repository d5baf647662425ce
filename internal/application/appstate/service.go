package appstate

import (
	"context"
	"encoding/json"
	"errors"

	"souk-backend/internal/application/listings"
	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/clock"

	"github.com/rs/zerolog/log"
)

const Version = "1.0.0"

var ErrInvalidState = errors.New("Invalid state format")

type Users struct {
	Mock  []domain.User `json:"mock"`
	Admin []domain.User `json:"admin"`
}

type HeroSlides struct {
	Slides []domain.HeroSlide `json:"slides"`
}

type Site struct {
	MovingHeader *domain.MovingHeader `json:"movingHeader,omitempty"`
	HeroSlides   *HeroSlides          `json:"heroSlides,omitempty"`
	Footer       *domain.Footer       `json:"footer,omitempty"`
	Logo         *domain.Logo         `json:"logo,omitempty"`
	CTA          *domain.CTA          `json:"cta,omitempty"`
}

type Settings struct {
	Theme    string `json:"theme,omitempty"`
	Language string `json:"language,omitempty"`
	Site     *Site  `json:"site,omitempty"`
}

// State is a full snapshot of the persisted marketplace data. On import a nil
// section is left untouched.
type State struct {
	Version    string           `json:"version"`
	Timestamp  string           `json:"timestamp"`
	User       *domain.User     `json:"user,omitempty"`
	Listings   []domain.Listing `json:"listings,omitempty"`
	Categories []string         `json:"categories,omitempty"`
	Users      *Users           `json:"users,omitempty"`
	Inquiries  []domain.Inquiry `json:"inquiries,omitempty"`
	Orders     []domain.Order   `json:"orders,omitempty"`
	Settings   *Settings        `json:"settings,omitempty"`
}

type Stats struct {
	Listings   int    `json:"listings"`
	Users      int    `json:"users"`
	Inquiries  int    `json:"inquiries"`
	Orders     int    `json:"orders"`
	Categories int    `json:"categories"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
}

type snapshot struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Snapshot  State  `json:"snapshot"`
}

// Service exports, imports and clears the whole persisted state.
type Service struct {
	Storage  *storage.SafeStore
	Listings *listings.Store
	Clock    clock.Clock
}

func NewService(s *storage.SafeStore, l *listings.Store, c clock.Clock) *Service {
	if c == nil {
		c = clock.RealClock{}
	}
	if l == nil {
		l = listings.NewStore(s, c, nil)
	}
	return &Service{Storage: s, Listings: l, Clock: c}
}

func optional[T any](ctx context.Context, s *storage.SafeStore, key string) *T {
	var v T
	if !s.Get(ctx, key, &v) {
		return nil
	}
	return &v
}

// Export reads every known key into a State. Missing collections export empty.
func (s *Service) Export(ctx context.Context) State {
	st := State{
		Version:    Version,
		Timestamp:  clock.Millis(s.Clock.Now()),
		User:       optional[domain.User](ctx, s.Storage, storage.ProfileKey),
		Listings:   s.Listings.GetAll(ctx),
		Categories: storage.Load(ctx, s.Storage, storage.CategoriesKey, []string{}),
		Users: &Users{
			Mock:  storage.Load(ctx, s.Storage, storage.SignupUsersKey, []domain.User{}),
			Admin: storage.Load(ctx, s.Storage, storage.AdminUsersKey, []domain.User{}),
		},
		Inquiries: storage.Load(ctx, s.Storage, storage.InquiriesKey, []domain.Inquiry{}),
		Orders:    storage.Load(ctx, s.Storage, storage.OrdersKey, []domain.Order{}),
		Settings: &Settings{
			Theme:    storage.Load(ctx, s.Storage, storage.ThemeKey, "light"),
			Language: storage.Load(ctx, s.Storage, storage.LanguageKey, "fr"),
			Site: &Site{
				MovingHeader: optional[domain.MovingHeader](ctx, s.Storage, domain.MovingHeaderKey),
				Footer:       optional[domain.Footer](ctx, s.Storage, domain.FooterKey),
				Logo:         optional[domain.Logo](ctx, s.Storage, domain.LogoKey),
				CTA:          optional[domain.CTA](ctx, s.Storage, domain.CTAKey),
			},
		},
	}
	if slides := optional[[]domain.HeroSlide](ctx, s.Storage, domain.HeroSlidesKey); slides != nil {
		st.Settings.Site.HeroSlides = &HeroSlides{Slides: *slides}
	}
	if st.User != nil {
		u := st.User.Public()
		st.User = &u
	}
	return st
}

// ExportJSON renders Export as indented JSON.
func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	return json.MarshalIndent(s.Export(ctx), "", "  ")
}

// Import parses a JSON document produced by ExportJSON and saves it.
func (s *Service) Import(ctx context.Context, data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn().Err(err).Msg("Failed to parse imported state")
		return ErrInvalidState
	}
	return s.Save(ctx, st)
}

type write struct {
	key   string
	value any
}

// Save writes every present section of st, then records the whole snapshot.
func (s *Service) Save(ctx context.Context, st State) error {
	var writes []write
	put := func(key string, value any) {
		writes = append(writes, write{key, value})
	}
	if st.User != nil {
		put(storage.ProfileKey, st.User)
	}
	if st.Categories != nil {
		put(storage.CategoriesKey, st.Categories)
	}
	if st.Users != nil {
		if st.Users.Mock != nil {
			put(storage.SignupUsersKey, st.Users.Mock)
		}
		if st.Users.Admin != nil {
			put(storage.AdminUsersKey, st.Users.Admin)
		}
	}
	if st.Inquiries != nil {
		put(storage.InquiriesKey, st.Inquiries)
	}
	if st.Orders != nil {
		put(storage.OrdersKey, st.Orders)
	}
	if set := st.Settings; set != nil {
		if set.Theme != "" {
			put(storage.ThemeKey, set.Theme)
		}
		if set.Language != "" {
			put(storage.LanguageKey, set.Language)
		}
		if site := set.Site; site != nil {
			if site.MovingHeader != nil {
				put(domain.MovingHeaderKey, site.MovingHeader)
			}
			if site.HeroSlides != nil {
				put(domain.HeroSlidesKey, site.HeroSlides.Slides)
			}
			if site.Footer != nil {
				put(domain.FooterKey, site.Footer)
			}
			if site.Logo != nil {
				put(domain.LogoKey, site.Logo)
			}
			if site.CTA != nil {
				put(domain.CTAKey, site.CTA)
			}
		}
	}

	if st.Listings != nil {
		if err := s.Listings.ReplaceAll(ctx, st.Listings); err != nil {
			return err
		}
	}
	for _, w := range writes {
		if !s.Storage.Set(ctx, w.key, w.value) {
			return domain.ErrStorageFull
		}
	}

	if st.Version == "" {
		st.Version = Version
	}
	if st.Timestamp == "" {
		st.Timestamp = clock.Millis(s.Clock.Now())
	}
	if !s.Storage.Set(ctx, storage.AppStateKey, snapshot{Version: st.Version, Timestamp: st.Timestamp, Snapshot: st}) {
		log.Warn().Msg("State imported but the snapshot could not be stored")
	}
	log.Info().Int("listings", len(st.Listings)).Int("sections", len(writes)).Msg("App state saved")
	return nil
}

// clearedKeys are removed by Clear, in order.
var clearedKeys = []string{
	storage.ProfileKey,
	storage.MyListingsKey,
	storage.SignupUsersKey,
	storage.AdminUsersKey,
	storage.InquiriesKey,
	storage.OrdersKey,
	storage.ActivityLogsKey,
	domain.MovingHeaderKey,
	domain.HeroSlidesKey,
	domain.FooterKey,
	domain.LogoKey,
	domain.CTAKey,
	storage.CategoriesKey,
	storage.AppStateKey,
}

// Clear removes every persisted collection and setting so reads fall back to defaults.
func (s *Service) Clear(ctx context.Context) bool {
	ok := s.Listings.Reset(ctx)
	for _, k := range clearedKeys {
		ok = s.Storage.Remove(ctx, k) && ok
	}
	return ok
}

func (s *Service) Stats(ctx context.Context) Stats {
	st := s.Export(ctx)
	return Stats{
		Listings:   len(st.Listings),
		Users:      len(st.Users.Mock) + len(st.Users.Admin),
		Inquiries:  len(st.Inquiries),
		Orders:     len(st.Orders),
		Categories: len(st.Categories),
		Timestamp:  st.Timestamp,
		Version:    st.Version,
	}
}
