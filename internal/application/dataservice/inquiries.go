package dataservice

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const defaultInquiryLimit = 50

// InquiryInput is a contact request. Missing contact fields are filled from the current profile.
type InquiryInput struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// CreateInquiry records an inquiry about an existing listing and bumps its inquiry counter.
func (s *Service) CreateInquiry(ctx context.Context, listingID, actorID string, in InquiryInput) response.Result[domain.Inquiry] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPost, "/listings/"+url.PathEscape(listingID)+"/inquiries", in, func() response.Result[domain.Inquiry] {
		if _, err := s.listings.GetByID(ctx, listingID); err != nil {
			return response.Fail[domain.Inquiry](err)
		}
		if strings.TrimSpace(in.Message) == "" {
			return response.Fail[domain.Inquiry](domain.ErrMissingField)
		}
		profile := s.currentProfile(ctx)
		if actorID == "" {
			actorID = profile.ID
		}
		now := s.clock.Now()
		iq := domain.Inquiry{
			ID:        "iq" + strconv.FormatInt(now.UnixMilli(), 10),
			ListingID: listingID,
			UserID:    actorID,
			Name:      firstNonEmpty(in.Name, profile.FullName, profile.Username),
			Email:     firstNonEmpty(in.Email, profile.Email),
			Phone:     firstNonEmpty(in.Phone, profile.Phone),
			Message:   strings.TrimSpace(in.Message),
			CreatedAt: now,
			UpdatedAt: now,
		}

		s.docMu.Lock()
		list := storage.Load[[]domain.Inquiry](ctx, s.store, storage.InquiriesKey, nil)
		err := s.save(ctx, storage.InquiriesKey, append([]domain.Inquiry{iq}, list...))
		s.docMu.Unlock()
		if err != nil {
			return response.Fail[domain.Inquiry](err)
		}
		if _, err := s.listings.CountInquiry(ctx, listingID); err != nil {
			log.Warn().Err(err).Str("listing_id", listingID).Msg("Failed to bump inquiry counter")
		}
		return response.OKMessage(iq, "Inquiry sent successfully")
	})
}

// AdminGetInquiries returns the newest inquiries; limit below 1 means 50.
func (s *Service) AdminGetInquiries(ctx context.Context, limit int) response.Result[[]domain.Inquiry] {
	if limit < 1 {
		limit = defaultInquiryLimit
	}
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, "/admin/inquiries?limit="+strconv.Itoa(limit), nil, func() response.Result[[]domain.Inquiry] {
		list := storage.Load(ctx, s.store, storage.InquiriesKey, []domain.Inquiry{})
		if len(list) > limit {
			list = list[:limit]
		}
		return response.OK(list)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
