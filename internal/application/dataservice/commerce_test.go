package dataservice

import (
	"context"
	"testing"
	"time"

	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInquiry_FillsFromProfileAndBumpsCounter(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	l := f.svc.CreateListing(ctx, "seller", CreateListingInput{Title: "A"})
	require.True(t, l.Success)

	res := f.svc.CreateInquiry(ctx, l.Data.ID, "", InquiryInput{Message: " Toujours disponible ? "})
	require.True(t, res.Success, res.Message)
	iq := res.Data
	assert.Equal(t, "iq1705314600000", iq.ID)
	assert.Equal(t, "1", iq.UserID)
	assert.Equal(t, "demo@souk.dz", iq.Email)
	assert.Equal(t, "Utilisateur Démo", iq.Name)
	assert.Equal(t, "Toujours disponible ?", iq.Message)

	got, err := f.svc.Listings().GetByID(ctx, l.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Inquiries)
}

func TestCreateInquiry_UnknownListing(t *testing.T) {
	f := setupMock(t)
	res := f.svc.CreateInquiry(context.Background(), "ghost", "", InquiryInput{Message: "hi"})
	assert.False(t, res.Success)
	assert.Equal(t, "Not found", res.Message)
}

func TestAdminGetInquiries_NewestFirstWithLimit(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	l := f.svc.CreateListing(ctx, "seller", CreateListingInput{Title: "A"})
	for _, msg := range []string{"one", "two", "three"} {
		require.True(t, f.svc.CreateInquiry(ctx, l.Data.ID, "u", InquiryInput{Message: msg}).Success)
		f.clock.Advance(time.Second)
	}

	all := f.svc.AdminGetInquiries(ctx, 0)
	require.Len(t, all.Data, 3)
	assert.Equal(t, "three", all.Data[0].Message)

	two := f.svc.AdminGetInquiries(ctx, 2)
	assert.Len(t, two.Data, 2)
}

func TestOrders_Lifecycle(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	l := f.svc.CreateListing(ctx, "seller", CreateListingInput{Title: "Lot", Price: 312.5, Wilaya: "Oran"})
	require.True(t, l.Success)

	res := f.svc.CreateOrder(ctx, "buyer", CreateOrderInput{ListingID: l.Data.ID, Quantity: 3})
	require.True(t, res.Success, res.Message)
	o := res.Data
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("937.5").Equal(o.Total))
	assert.Equal(t, "Oran", o.ShippingAddress.Wilaya)

	bad := f.svc.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusDelivered)
	assert.False(t, bad.Success)
	assert.Equal(t, domain.ErrInvalidTransition.Error(), bad.Message)

	for _, next := range []string{domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		step := f.svc.UpdateOrderStatus(ctx, o.ID, next)
		require.True(t, step.Success, next)
		assert.Equal(t, next, step.Data.Status)
	}

	mine := f.svc.GetUserOrders(ctx, "buyer")
	require.Len(t, mine.Data, 1)
	assert.Empty(t, f.svc.GetUserOrders(ctx, "someone-else").Data)

	delivered := f.svc.GetOrders(ctx, OrderFilter{Status: domain.OrderStatusDelivered})
	assert.Len(t, delivered.Data, 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	assert.Equal(t, domain.ErrInvalidQuantity.Error(), f.svc.CreateOrder(ctx, "b", CreateOrderInput{ListingID: "x"}).Message)
	assert.Equal(t, "Not found", f.svc.CreateOrder(ctx, "b", CreateOrderInput{ListingID: "x", Quantity: 1}).Message)
	assert.Equal(t, "Not found", f.svc.UpdateOrderStatus(ctx, "x", domain.OrderStatusConfirmed).Message)
}

func seedOptions(users, listings int) mockdata.Options {
	return mockdata.Options{UserCount: users, ListingCount: listings, OrderCount: 5, InquiryCount: 5, ActivityCount: 10, Seed: 7}
}

func TestSeedDemoData(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	existing := f.svc.CreateListing(ctx, "u", CreateListingInput{Title: "Mine"})
	require.True(t, existing.Success)

	res := f.svc.SeedDemoData(ctx, seedOptions(4, 6), false)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 6, res.Data.Listings)
	assert.Len(t, f.svc.Listings().GetAll(ctx), 7)
	assert.Len(t, f.svc.GetActivityLogs(ctx, 0).Data, res.Data.ActivityLogs)

	users := f.svc.AdminListUsers(ctx, UserFilter{})
	assert.Equal(t, 4+3, users.Data.Total)

	replaced := f.svc.SeedDemoData(ctx, seedOptions(2, 3), true)
	require.True(t, replaced.Success)
	assert.Len(t, f.svc.Listings().GetAll(ctx), 3)
	assert.Len(t, storage.Load[[]domain.Order](ctx, f.svc.Storage(), storage.OrdersKey, nil), replaced.Data.Orders)
}
