package dataservice

import (
	"context"

	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/pkg/response"

	"github.com/rs/zerolog/log"
)

type SeedSummary struct {
	Users        int  `json:"users"`
	Listings     int  `json:"listings"`
	Orders       int  `json:"orders"`
	Inquiries    int  `json:"inquiries"`
	ActivityLogs int  `json:"activityLogs"`
	Replaced     bool `json:"replaced"`
}

// SeedDemoData generates a dataset and stores it. With replace the mock collections
// are overwritten; otherwise generated entities are placed ahead of existing ones.
// Seeding always writes locally.
func (s *Service) SeedDemoData(ctx context.Context, o mockdata.Options, replace bool) response.Result[SeedSummary] {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	gen := s.generator
	if o.Seed != 0 {
		gen = mockdata.NewGenerator(o.Seed, s.clock)
	}
	ds := gen.Dataset(o)

	if replace {
		if err := s.listings.ReplaceAll(ctx, ds.Listings); err != nil {
			return response.Fail[SeedSummary](err)
		}
	} else if err := s.listings.Prepend(ctx, ds.Listings); err != nil {
		return response.Fail[SeedSummary](err)
	}

	users := ds.Users
	orders := ds.Orders
	inquiries := ds.Inquiries
	logs := ds.ActivityLogs
	if !replace {
		users = append(users, s.adminUsers(ctx)...)
		orders = append(orders, s.loadOrders(ctx)...)
		inquiries = append(inquiries, storage.Load[[]domain.Inquiry](ctx, s.store, storage.InquiriesKey, nil)...)
		logs = append(logs, storage.Load[[]domain.ActivityLog](ctx, s.store, storage.ActivityLogsKey, nil)...)
	}
	if len(inquiries) > storage.MaxInquiries {
		inquiries = inquiries[:storage.MaxInquiries]
	}
	for key, v := range map[string]any{
		storage.AdminUsersKey:   users,
		storage.OrdersKey:       orders,
		storage.InquiriesKey:    inquiries,
		storage.ActivityLogsKey: logs,
	} {
		if err := s.save(ctx, key, v); err != nil {
			return response.Fail[SeedSummary](err)
		}
	}
	sum := SeedSummary{
		Users:        len(ds.Users),
		Listings:     len(ds.Listings),
		Orders:       len(ds.Orders),
		Inquiries:    len(ds.Inquiries),
		ActivityLogs: len(ds.ActivityLogs),
		Replaced:     replace,
	}
	log.Info().Int("users", sum.Users).Int("listings", sum.Listings).Int("orders", sum.Orders).
		Bool("replaced", replace).Msg("Demo data seeded")
	return response.OK(sum)
}

// GetActivityLogs returns the stored activity logs, newest first.
func (s *Service) GetActivityLogs(ctx context.Context, limit int) response.Result[[]domain.ActivityLog] {
	logs := storage.Load(ctx, s.store, storage.ActivityLogsKey, []domain.ActivityLog{})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return response.OK(logs)
}
