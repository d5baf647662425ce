package dataservice

import (
	"context"
	"net/url"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderFilter narrows GetOrders. Empty fields match everything.
type OrderFilter struct {
	UserID    string
	ListingID string
	Status    string
}

func (f OrderFilter) match(o domain.Order) bool {
	return (f.UserID == "" || o.UserID == f.UserID) &&
		(f.ListingID == "" || o.ListingID == f.ListingID) &&
		(f.Status == "" || o.Status == f.Status)
}

type CreateOrderInput struct {
	ListingID       string         `json:"listingId"`
	Quantity        int            `json:"quantity"`
	ShippingAddress domain.Address `json:"shippingAddress"`
}

func (s *Service) loadOrders(ctx context.Context) []domain.Order {
	return storage.Load(ctx, s.store, storage.OrdersKey, []domain.Order{})
}

func (s *Service) GetOrders(ctx context.Context, f OrderFilter) response.Result[[]domain.Order] {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	path := "/admin/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, path, nil, func() response.Result[[]domain.Order] {
		return response.OK(s.filterOrders(ctx, f))
	})
}

func (s *Service) filterOrders(ctx context.Context, f OrderFilter) []domain.Order {
	out := []domain.Order{}
	for _, o := range s.loadOrders(ctx) {
		if f.match(o) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Service) GetUserOrders(ctx context.Context, userID string) response.Result[[]domain.Order] {
	if userID == "" {
		userID = s.currentProfile(ctx).ID
	}
	return passthrough(ctx, s, s.mock(), fiber.MethodGet, "/user/orders", nil, func() response.Result[[]domain.Order] {
		return response.OK(s.filterOrders(ctx, OrderFilter{UserID: userID}))
	})
}

// CreateOrder places a pending order at the listing's current price.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) response.Result[domain.Order] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPost, "/orders", in, func() response.Result[domain.Order] {
		if in.Quantity < 1 {
			return response.Fail[domain.Order](domain.ErrInvalidQuantity)
		}
		l, err := s.listings.GetByID(ctx, in.ListingID)
		if err != nil {
			return response.Fail[domain.Order](err)
		}
		if userID == "" {
			userID = s.currentProfile(ctx).ID
		}
		now := s.clock.Now()
		price := decimal.NewFromFloat(l.Price)
		addr := in.ShippingAddress
		if addr.Wilaya == "" {
			addr.Wilaya = l.Wilaya
		}
		o := domain.Order{
			ID:              s.ids.New(),
			UserID:          userID,
			ListingID:       l.ID,
			Quantity:        in.Quantity,
			Price:           price,
			Total:           domain.OrderTotal(price, in.Quantity),
			Status:          domain.OrderStatusPending,
			ShippingAddress: addr,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		s.docMu.Lock()
		defer s.docMu.Unlock()
		if err := s.save(ctx, storage.OrdersKey, append([]domain.Order{o}, s.loadOrders(ctx)...)); err != nil {
			return response.Fail[domain.Order](err)
		}
		log.Info().Str("order_id", o.ID).Str("listing_id", l.ID).Str("total", o.Total.String()).Msg("Order created")
		return response.OKMessage(o, "Order created successfully")
	})
}

// UpdateOrderStatus moves an order along its lifecycle.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) response.Result[domain.Order] {
	return passthrough(ctx, s, s.mock(), fiber.MethodPatch, "/admin/orders/"+url.PathEscape(id)+"/status", fiber.Map{"status": status}, func() response.Result[domain.Order] {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		orders := s.loadOrders(ctx)
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			if !domain.CanTransitionOrder(orders[i].Status, status) {
				return response.Fail[domain.Order](domain.ErrInvalidTransition)
			}
			orders[i].Status = status
			orders[i].UpdatedAt = s.clock.Now()
			if err := s.save(ctx, storage.OrdersKey, orders); err != nil {
				return response.Fail[domain.Order](err)
			}
			return response.OK(orders[i])
		}
		return response.Fail[domain.Order](domain.ErrNotFound)
	})
}
