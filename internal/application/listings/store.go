package listings

import (
	"context"
	"math"
	"strings"
	"sync"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/pkg/clock"
)

// Store is the only writer of the listings collection. Every mutation reads the
// whole collection, transforms it and writes it back under one lock.
type Store struct {
	Storage *storage.SafeStore
	Clock   clock.Clock
	IDs     clock.IDGenerator

	mu sync.Mutex
}

func NewStore(s *storage.SafeStore, c clock.Clock, ids clock.IDGenerator) *Store {
	if c == nil {
		c = clock.RealClock{}
	}
	if ids == nil {
		ids = clock.ListingIDGenerator{Clock: c}
	}
	return &Store{Storage: s, Clock: c, IDs: ids}
}

// ListingPatch carries the fields an update may change. Nil fields are left alone;
// a nil or empty Images keeps the current images.
type ListingPatch struct {
	Title           *string   `json:"title,omitempty" form:"title"`
	Description     *string   `json:"description,omitempty" form:"description"`
	Price           *float64  `json:"price,omitempty" form:"price"`
	Unit            *string   `json:"unit,omitempty" form:"unit"`
	Category        *string   `json:"category,omitempty" form:"category"`
	Images          []string  `json:"images,omitempty" form:"images"`
	Status          *string   `json:"status,omitempty" form:"status"`
	Wilaya          *string   `json:"wilaya,omitempty" form:"wilaya"`
	Commune         *string   `json:"commune,omitempty" form:"commune"`
	ListingDate     *string   `json:"listingDate,omitempty" form:"listingDate"`
	BreedingDate    *string   `json:"breedingDate,omitempty" form:"breedingDate"`
	PreparationDate *string   `json:"preparationDate,omitempty" form:"preparationDate"`
	TrainingType    *string   `json:"trainingType,omitempty" form:"trainingType"`
	MedicationsUsed *string   `json:"medicationsUsed,omitempty" form:"medicationsUsed"`
	Vaccinated      *bool     `json:"vaccinated,omitempty" form:"vaccinated"`
	Quantity        *int      `json:"quantity,omitempty" form:"quantity"`
	Delivery        *bool     `json:"delivery,omitempty" form:"delivery"`
	AverageWeight   *float64  `json:"averageWeight,omitempty" form:"averageWeight"`
	CreatedBy       *string   `json:"createdBy,omitempty" form:"-"`
	SavedBy         *[]string `json:"savedBy,omitempty" form:"-"`
	Views           *int      `json:"views,omitempty" form:"-"`
	Inquiries       *int      `json:"inquiries,omitempty" form:"-"`
}

func (s *Store) load(ctx context.Context) []domain.Listing {
	return storage.Load[[]domain.Listing](ctx, s.Storage, storage.ListingsKey, nil)
}

func (s *Store) save(ctx context.Context, list []domain.Listing) error {
	if list == nil {
		list = []domain.Listing{}
	}
	if !s.Storage.Set(ctx, storage.ListingsKey, list) {
		return domain.ErrStorageFull
	}
	return nil
}

func normalizeAll(list []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(list))
	for _, l := range list {
		out = append(out, normalize(l))
	}
	return out
}

func indexOf(list []domain.Listing, id string) int {
	for i, l := range list {
		if l.ID == id || (l.ID == "" && l.LegacyID == id) {
			return i
		}
	}
	return -1
}

// GetAll returns every listing, newest first.
func (s *Store) GetAll(ctx context.Context) []domain.Listing {
	return normalizeAll(s.load(ctx))
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	list := s.load(ctx)
	i := indexOf(list, id)
	if id == "" || i < 0 {
		return domain.Listing{}, domain.ErrNotFound
	}
	return normalize(list[i]), nil
}

// Create assigns an id and timestamps, defaults the status to published and
// prepends the listing to the collection.
func (s *Store) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock.Now()
	l.ID = s.IDs.New()
	l.LegacyID = l.ID
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = domain.ListingStatusPublished
	}
	if !domain.IsValidListingStatus(l.Status) {
		return domain.Listing{}, domain.ErrInvalidStatus
	}
	l.Category = domain.NormalizeCategory(l.Category)
	if l.PricePerKg == 0 {
		l.PricePerKg = l.Price
	}
	if l.Price == 0 {
		l.Price = l.PricePerKg
	}
	l.Images = append([]string{}, l.Images...)
	if len(l.Images) > 0 {
		l.Image = l.Images[0]
	}
	l.SavedBy = []string{}

	list := s.load(ctx)
	list = append([]domain.Listing{l}, list...)
	if err := s.save(ctx, list); err != nil {
		return domain.Listing{}, err
	}
	return normalize(l), nil
}

// Update merges patch over the listing with id.
func (s *Store) Update(ctx context.Context, id string, patch ListingPatch) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, func(l *domain.Listing) error { return applyPatch(l, patch) })
}

func (s *Store) update(ctx context.Context, id string, fn func(*domain.Listing) error) (domain.Listing, error) {
	return s.mutate(ctx, id, true, fn)
}

// mutate runs one read, transform and write cycle. Callers hold s.mu.
func (s *Store) mutate(ctx context.Context, id string, publish bool, fn func(*domain.Listing) error) (domain.Listing, error) {
	list := s.load(ctx)
	i := indexOf(list, id)
	if id == "" || i < 0 {
		return domain.Listing{}, domain.ErrNotFound
	}
	l := list[i]
	if err := fn(&l); err != nil {
		return domain.Listing{}, err
	}
	l.UpdatedAt = s.Clock.Now()
	list[i] = l
	if publish {
		if err := s.save(ctx, list); err != nil {
			return domain.Listing{}, err
		}
	} else if !s.Storage.SetQuiet(ctx, storage.ListingsKey, list) {
		return domain.Listing{}, domain.ErrStorageFull
	}
	return normalize(l), nil
}

func applyPatch(l *domain.Listing, p ListingPatch) error {
	if p.Status != nil {
		if !domain.IsValidListingStatus(*p.Status) {
			return domain.ErrInvalidStatus
		}
		l.Status = *p.Status
	}
	setString(&l.Title, p.Title)
	setString(&l.Description, p.Description)
	setString(&l.Unit, p.Unit)
	setString(&l.Wilaya, p.Wilaya)
	setString(&l.Commune, p.Commune)
	setString(&l.ListingDate, p.ListingDate)
	setString(&l.BreedingDate, p.BreedingDate)
	setString(&l.PreparationDate, p.PreparationDate)
	setString(&l.TrainingType, p.TrainingType)
	setString(&l.MedicationsUsed, p.MedicationsUsed)
	setString(&l.CreatedBy, p.CreatedBy)
	if p.Category != nil {
		l.Category = domain.NormalizeCategory(*p.Category)
	}
	if p.Price != nil {
		if *p.Price < 0 || math.IsNaN(*p.Price) || math.IsInf(*p.Price, 0) {
			return domain.ErrInvalidPrice
		}
		l.Price = *p.Price
		l.PricePerKg = *p.Price
	}
	if p.Vaccinated != nil {
		l.Vaccinated = *p.Vaccinated
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.Delivery != nil {
		l.Delivery = *p.Delivery
	}
	if p.AverageWeight != nil {
		l.AverageWeight = *p.AverageWeight
	}
	if p.Views != nil && *p.Views > l.Views {
		l.Views = *p.Views
	}
	if p.Inquiries != nil && *p.Inquiries > l.Inquiries {
		l.Inquiries = *p.Inquiries
	}
	if p.SavedBy != nil {
		l.SavedBy = append([]string{}, (*p.SavedBy)...)
	}
	if len(p.Images) > 0 {
		l.Images = append([]string{}, p.Images...)
		l.Image = l.Images[0]
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes the listing with id. Deleting an unknown id is a no-op and
// reports false without touching storage.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	i := indexOf(list, id)
	if id == "" || i < 0 {
		return false, nil
	}
	list = append(list[:i], list[i+1:]...)
	if err := s.save(ctx, list); err != nil {
		return false, err
	}
	return true, nil
}

// Search matches query case-insensitively against title and description.
func (s *Store) Search(ctx context.Context, query string) []domain.Listing {
	all := s.GetAll(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]domain.Listing, 0)
	for _, l := range all {
		if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Description), q) {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) FilterByCategory(ctx context.Context, category string) []domain.Listing {
	all := s.GetAll(ctx)
	c := domain.NormalizeCategory(category)
	if c == "" {
		return all
	}
	out := make([]domain.Listing, 0)
	for _, l := range all {
		if strings.EqualFold(domain.NormalizeCategory(l.Category), c) {
			out = append(out, l)
		}
	}
	return out
}

// ToggleSaved adds userID to the listing's saved-by set, or removes it when present.
func (s *Store) ToggleSaved(ctx context.Context, id, userID string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, func(l *domain.Listing) error {
		next := make([]string, 0, len(l.SavedBy)+1)
		found := false
		for _, u := range l.SavedBy {
			if u == userID {
				found = true
				continue
			}
			next = append(next, u)
		}
		if !found {
			next = append(next, userID)
		}
		l.SavedBy = next
		return nil
	})
}

func (s *Store) GetByCreator(ctx context.Context, userID string) []domain.Listing {
	out := make([]domain.Listing, 0)
	for _, l := range s.GetAll(ctx) {
		if l.CreatedBy == userID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) GetSaved(ctx context.Context, userID string) []domain.Listing {
	out := make([]domain.Listing, 0)
	for _, l := range s.GetAll(ctx) {
		if l.IsSavedBy(userID) {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) SetStatus(ctx context.Context, id, status string) (domain.Listing, error) {
	return s.Update(ctx, id, ListingPatch{Status: &status})
}

// IncrementCounters adds to the views and inquiries counters. Negative deltas are ignored.
func (s *Store) IncrementCounters(ctx context.Context, id string, views, inquiries int) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, func(l *domain.Listing) error {
		if views > 0 {
			l.Views += views
		}
		if inquiries > 0 {
			l.Inquiries += inquiries
		}
		return nil
	})
}

// CountInquiry bumps the inquiry counter without publishing a listings change.
// The inquiry write that triggers it is the published event.
func (s *Store) CountInquiry(ctx context.Context, id string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, id, false, func(l *domain.Listing) error {
		l.Inquiries++
		return nil
	})
}

// ReplaceAll overwrites the collection, used by seeding and state import.
func (s *Store) ReplaceAll(ctx context.Context, list []domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, list)
}

// Prepend adds list ahead of the stored listings in a single write. Incoming
// listings replace stored ones with the same id.
func (s *Store) Prepend(ctx context.Context, list []domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(list))
	next := make([]domain.Listing, 0, len(list))
	for _, l := range normalizeAll(list) {
		seen[l.ID] = true
		next = append(next, l)
	}
	for _, l := range s.load(ctx) {
		if !seen[l.ID] {
			next = append(next, l)
		}
	}
	return s.save(ctx, next)
}

// Reset removes the collection entirely.
func (s *Store) Reset(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Storage.Remove(ctx, storage.ListingsKey)
}

// Subscribe registers fn for changes to the listings collection. Handlers run
// while the store lock is held and must re-read, not mutate, the store.
func (s *Store) Subscribe(fn func(syncbus.Event)) func() {
	if s.Storage == nil || s.Storage.Bus == nil {
		return func() {}
	}
	return s.Storage.Bus.Subscribe(fn, storage.ListingsKey)
}
