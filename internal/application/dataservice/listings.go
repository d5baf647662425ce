package dataservice

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"souk-backend/internal/application/listings"
	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pagination describes one page of a collection.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

const (
	defaultPage  = 1
	defaultLimit = 20
)

// Paginate slices items[(page-1)*limit : page*limit]. Page and limit below 1
// become the defaults (1 and 20).
func Paginate[T any](items []T, page, limit int) ([]T, Pagination) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	total := len(items)
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + min(limit, total-start)
	slice := make([]T, end-start)
	copy(slice, items[start:end])
	return slice, Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Max(1, math.Ceil(float64(total)/float64(limit)))),
		HasNext:    end < total,
		HasPrev:    page > 1,
	}
}

// ListParams selects and pages listings.
type ListParams struct {
	Page     int
	Limit    int
	Query    string
	Category string
	Status   string
	Wilaya   string
}

func (p ListParams) query() string {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	for k, s := range map[string]string{"q": p.Query, "category": p.Category, "status": p.Status, "wilaya": p.Wilaya} {
		if s != "" {
			v.Set(k, s)
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type ListingPage struct {
	Listings   []domain.Listing `json:"listings"`
	Pagination Pagination       `json:"pagination"`
}

type ListingDetails struct {
	Listing domain.Listing `json:"listing"`
}

type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type SavedToggle struct {
	Listing domain.Listing `json:"listing"`
	Saved   bool           `json:"saved"`
}

// CreateListingInput is the typed form of a new listing. Uploads are embedded
// as data URLs; ImageURLs are kept as given.
type CreateListingInput struct {
	Title           string   `json:"title,omitempty" form:"title"`
	Description     string   `json:"description,omitempty" form:"description"`
	Price           float64  `json:"price,omitempty" form:"price"`
	Unit            string   `json:"unit,omitempty" form:"unit"`
	Category        string   `json:"category,omitempty" form:"category"`
	Status          string   `json:"status,omitempty" form:"status"`
	Wilaya          string   `json:"wilaya,omitempty" form:"wilaya"`
	Commune         string   `json:"commune,omitempty" form:"commune"`
	ListingDate     string   `json:"listingDate,omitempty" form:"listingDate"`
	BreedingDate    string   `json:"breedingDate,omitempty" form:"breedingDate"`
	PreparationDate string   `json:"preparationDate,omitempty" form:"preparationDate"`
	TrainingType    string   `json:"trainingType,omitempty" form:"trainingType"`
	MedicationsUsed string   `json:"medicationsUsed,omitempty" form:"medicationsUsed"`
	Vaccinated      bool     `json:"vaccinated,omitempty" form:"vaccinated"`
	Quantity        int      `json:"quantity,omitempty" form:"quantity"`
	Delivery        bool     `json:"delivery,omitempty" form:"delivery"`
	AverageWeight   float64  `json:"averageWeight,omitempty" form:"averageWeight"`
	ImageURLs       []string `json:"images,omitempty" form:"images"`
	Uploads         []Upload `json:"-" form:"-"`
}

// UpdateListingInput patches a listing. When Uploads is non-empty the images are
// replaced by Patch.Images followed by the embedded uploads.
type UpdateListingInput struct {
	Patch   listings.ListingPatch
	Uploads []Upload
}

func (s *Service) filtered(ctx context.Context, p ListParams) []domain.Listing {
	var list []domain.Listing
	if strings.TrimSpace(p.Query) != "" {
		list = s.listings.Search(ctx, p.Query)
	} else {
		list = s.listings.GetAll(ctx)
	}
	c := domain.NormalizeCategory(p.Category)
	out := make([]domain.Listing, 0, len(list))
	for _, l := range list {
		if c != "" && !strings.EqualFold(domain.NormalizeCategory(l.Category), c) {
			continue
		}
		if p.Status != "" && l.Status != p.Status {
			continue
		}
		if p.Wilaya != "" && !strings.EqualFold(l.Wilaya, p.Wilaya) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s *Service) listPage(ctx context.Context, p ListParams) response.Result[ListingPage] {
	items, pg := Paginate(s.filtered(ctx, p), p.Page, p.Limit)
	return response.OK(ListingPage{Listings: items, Pagination: pg})
}

// ListListings returns one page of listings.
func (s *Service) ListListings(ctx context.Context, p ListParams) response.Result[ListingPage] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/listings"+p.query(), nil, func() response.Result[ListingPage] {
		return s.listPage(ctx, p)
	})
}

// AdminListListings returns one page of listings, drafts included.
func (s *Service) AdminListListings(ctx context.Context, p ListParams) response.Result[ListingPage] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/admin/listings"+p.query(), nil, func() response.Result[ListingPage] {
		return s.listPage(ctx, p)
	})
}

func (s *Service) GetListingDetails(ctx context.Context, id string) response.Result[ListingDetails] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/public/listings/"+url.PathEscape(id), nil, func() response.Result[ListingDetails] {
		l, err := s.listings.GetByID(ctx, id)
		if err != nil {
			return response.Fail[ListingDetails](err)
		}
		return response.OK(ListingDetails{Listing: l})
	})
}

// GetMyListings returns the listings created by userID, or every listing when userID is empty.
func (s *Service) GetMyListings(ctx context.Context, userID string) response.Result[[]domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/user/my-listings", nil, func() response.Result[[]domain.Listing] {
		if userID == "" {
			return response.OK(s.listings.GetAll(ctx))
		}
		return response.OK(s.listings.GetByCreator(ctx, userID))
	})
}

func (s *Service) SearchListings(ctx context.Context, query, category string) response.Result[[]domain.Listing] {
	p := ListParams{Query: query, Category: category}
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/listings/search"+p.query(), nil, func() response.Result[[]domain.Listing] {
		return response.OK(s.filtered(ctx, p))
	})
}

// creator resolves who owns a new listing: the actor, else the current profile.
func (s *Service) creator(ctx context.Context, actorID string) string {
	if actorID != "" {
		return actorID
	}
	p := s.currentProfile(ctx)
	switch {
	case p.ID != "":
		return p.ID
	case p.Email != "":
		return p.Email
	}
	return "anonymous"
}

// CreateListing embeds uploads, applies defaults and stores the listing newest first.
func (s *Service) CreateListing(ctx context.Context, actorID string, in CreateListingInput) response.Result[domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPost, "/listings", in, func() response.Result[domain.Listing] {
		encoded, err := encodeUploads(ctx, in.Uploads)
		if err != nil {
			log.Error().Err(err).Msg("Failed to convert listing images")
			return response.Fail[domain.Listing](domain.ErrInvalidImage)
		}
		category := domain.NormalizeCategory(in.Category)
		if category == "" {
			category = "Poulet"
		}
		images := append(keepURLs(in.ImageURLs), encoded...)
		if len(images) == 0 {
			images = []string{listings.FallbackImage(category)}
		}
		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = "Annonce"
		}
		unit := in.Unit
		if unit == "" {
			unit = "kg"
		}
		price := in.Price
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			price = 0
		}
		created, err := s.listings.Create(ctx, domain.Listing{
			Title:           title,
			Description:     in.Description,
			Price:           price,
			PricePerKg:      price,
			Unit:            unit,
			Category:        category,
			Images:          images,
			Status:          in.Status,
			Wilaya:          in.Wilaya,
			Commune:         in.Commune,
			ListingDate:     in.ListingDate,
			BreedingDate:    in.BreedingDate,
			PreparationDate: in.PreparationDate,
			TrainingType:    in.TrainingType,
			MedicationsUsed: in.MedicationsUsed,
			Vaccinated:      in.Vaccinated,
			Quantity:        in.Quantity,
			Delivery:        in.Delivery,
			AverageWeight:   in.AverageWeight,
			CreatedBy:       s.creator(ctx, actorID),
		})
		if err != nil {
			return response.Fail[domain.Listing](err)
		}
		s.indexListing(ctx, created)
		log.Info().Str("listing_id", created.ID).Int("images", len(created.Images)).Msg("Listing created")
		return response.OKMessage(created, "Listing created successfully")
	})
}

// UpdateListing patches a listing. Images are only replaced when new ones are supplied.
func (s *Service) UpdateListing(ctx context.Context, id string, in UpdateListingInput) response.Result[domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPut, "/listings/"+url.PathEscape(id), in.Patch, func() response.Result[domain.Listing] {
		patch := in.Patch
		patch.Images = keepURLs(patch.Images)
		if len(in.Uploads) > 0 {
			encoded, err := encodeUploads(ctx, in.Uploads)
			if err != nil {
				log.Error().Err(err).Str("listing_id", id).Msg("Failed to convert listing images")
				return response.Fail[domain.Listing](domain.ErrInvalidImage)
			}
			patch.Images = append(patch.Images, encoded...)
		}
		updated, err := s.listings.Update(ctx, id, patch)
		if err != nil {
			return response.Fail[domain.Listing](err)
		}
		if patch.Title != nil || patch.Status != nil {
			s.indexListing(ctx, updated)
		}
		return response.OKMessage(updated, "Listing updated successfully")
	})
}

// DeleteListing always succeeds for unknown ids.
func (s *Service) DeleteListing(ctx context.Context, id string) response.Result[DeleteResult] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodDelete, "/listings/"+url.PathEscape(id), nil, func() response.Result[DeleteResult] {
		deleted, err := s.listings.Delete(ctx, id)
		if err != nil {
			return response.Fail[DeleteResult](err)
		}
		if deleted {
			s.unindexListing(ctx, id)
		}
		return response.OK(DeleteResult{ID: id, Deleted: deleted})
	})
}

func (s *Service) SetListingStatus(ctx context.Context, id, status string) response.Result[domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPatch, "/listings/"+url.PathEscape(id)+"/status", fiber.Map{"status": status}, func() response.Result[domain.Listing] {
		return s.setStatus(ctx, id, status)
	})
}

func (s *Service) AdminSetListingStatus(ctx context.Context, id, status string) response.Result[domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPatch, "/admin/listings/"+url.PathEscape(id)+"/status", fiber.Map{"status": status}, func() response.Result[domain.Listing] {
		return s.setStatus(ctx, id, status)
	})
}

func (s *Service) setStatus(ctx context.Context, id, status string) response.Result[domain.Listing] {
	l, err := s.listings.SetStatus(ctx, id, status)
	if err != nil {
		return response.Fail[domain.Listing](err)
	}
	s.indexListing(ctx, l)
	return response.OK(l)
}

// ToggleSavedListing flips userID in the listing's saved-by set and mirrors the
// change in the bounded saved-listings journal.
func (s *Service) ToggleSavedListing(ctx context.Context, id, userID string) response.Result[SavedToggle] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPost, "/listings/"+url.PathEscape(id)+"/save", nil, func() response.Result[SavedToggle] {
		if userID == "" {
			userID = s.creator(ctx, "")
		}
		l, err := s.listings.ToggleSaved(ctx, id, userID)
		if err != nil {
			return response.Fail[SavedToggle](err)
		}
		saved := l.IsSavedBy(userID)
		s.journalSaved(ctx, id, userID, saved)
		return response.OK(SavedToggle{Listing: l, Saved: saved})
	})
}

func (s *Service) GetSavedListings(ctx context.Context, userID string) response.Result[[]domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodGet, "/user/saved-listings", nil, func() response.Result[[]domain.Listing] {
		if userID == "" {
			userID = s.creator(ctx, "")
		}
		return response.OK(s.listings.GetSaved(ctx, userID))
	})
}

// RecordListingView bumps the listing's view counter.
func (s *Service) RecordListingView(ctx context.Context, id string) response.Result[domain.Listing] {
	return passthrough(ctx, s, s.mockList(), fiber.MethodPost, "/public/listings/"+url.PathEscape(id)+"/view", nil, func() response.Result[domain.Listing] {
		l, err := s.listings.IncrementCounters(ctx, id, 1, 0)
		if err != nil {
			return response.Fail[domain.Listing](err)
		}
		return response.OK(l)
	})
}

// SavedEntry is one row of the saved-listings journal, newest first.
type SavedEntry struct {
	ListingID string `json:"listingId"`
	UserID    string `json:"userId"`
	SavedAt   string `json:"savedAt"`
}

func (s *Service) journalSaved(ctx context.Context, listingID, userID string, saved bool) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	entries := storage.Load[[]SavedEntry](ctx, s.store, storage.SavedListingsKey, nil)
	next := make([]SavedEntry, 0, len(entries)+1)
	if saved {
		next = append(next, SavedEntry{ListingID: listingID, UserID: userID, SavedAt: s.clock.Now().Format("2006-01-02T15:04:05.000Z07:00")})
	}
	for _, e := range entries {
		if e.ListingID == listingID && e.UserID == userID {
			continue
		}
		next = append(next, e)
	}
	if len(next) > storage.MaxSavedListings {
		next = next[:storage.MaxSavedListings]
	}
	_ = s.saveQuiet(ctx, storage.SavedListingsKey, next)
}

func (s *Service) indexListing(ctx context.Context, l domain.Listing) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	index := storage.Load[[]domain.MyListingEntry](ctx, s.store, storage.MyListingsKey, nil)
	entry := domain.MyListingEntry{ID: l.ID, Title: l.Title, CreatedBy: l.CreatedBy, Status: l.Status}
	for i, e := range index {
		if e.ID == l.ID {
			index[i] = entry
			_ = s.saveQuiet(ctx, storage.MyListingsKey, index)
			return
		}
	}
	_ = s.saveQuiet(ctx, storage.MyListingsKey, append([]domain.MyListingEntry{entry}, index...))
}

func (s *Service) unindexListing(ctx context.Context, id string) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	index := storage.Load[[]domain.MyListingEntry](ctx, s.store, storage.MyListingsKey, nil)
	next := index[:0]
	for _, e := range index {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) != len(index) {
		_ = s.saveQuiet(ctx, storage.MyListingsKey, next)
	}
}
