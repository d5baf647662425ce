package listings

import (
	"context"
	"math"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"souk-backend/internal/domain"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *Store
	backend *storage.MemoryBackend
	bus     *syncbus.Bus
	clock   *testutil.StubClock
}

func setupStore(t *testing.T) fixture {
	t.Helper()
	backend := storage.NewMemoryBackend(0)
	bus := syncbus.New()
	clk := testutil.FixedClock()
	safe := storage.NewSafeStore(backend, bus, clk)
	return fixture{
		store:   NewStore(safe, clk, testutil.NewStubIDGenerator("listing")),
		backend: backend,
		bus:     bus,
		clock:   clk,
	}
}

func strPtr(s string) *string { return &s }

func TestCreateThenGetByID_RoundTrip(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	in := domain.Listing{
		Title:       "Poulet fermier",
		Description: "Lot de 40 poulets",
		Price:       320,
		Unit:        "kg",
		Category:    "poulet",
		Images:      []string{"data:image/png;base64,AAAA"},
		Wilaya:      "Alger",
		CreatedBy:   "user-1",
		Quantity:    40,
		Vaccinated:  true,
	}

	created, err := f.store.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "listing-1", created.ID)
	assert.Equal(t, created.ID, created.LegacyID)
	assert.Equal(t, domain.ListingStatusPublished, created.Status)
	assert.Equal(t, f.clock.Now(), created.CreatedAt)
	assert.Equal(t, f.clock.Now(), created.UpdatedAt)
	assert.Empty(t, created.SavedBy)
	assert.NotNil(t, created.SavedBy)

	got, err := f.store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, 320.0, got.Price)
	assert.Equal(t, 320.0, got.PricePerKg)
	assert.Equal(t, "Poulet", got.Category)
	assert.Equal(t, in.Images, got.Images)
	assert.Equal(t, in.Wilaya, got.Wilaya)
	assert.Equal(t, in.CreatedBy, got.CreatedBy)
	assert.Equal(t, 40, got.Quantity)
	assert.True(t, got.Vaccinated)
}

func TestCreate_PrependsNewest(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	_, err := f.store.Create(ctx, domain.Listing{Title: "first"})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, domain.Listing{Title: "second"})
	require.NoError(t, err)

	all := f.store.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title)
	assert.Equal(t, "first", all[1].Title)
}

func TestGetByID_NotFound(t *testing.T) {
	f := setupStore(t)
	_, err := f.store.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_PreservesImagesWhenPatchHasNone(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Title: "old", Images: []string{"A", "B"}})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	updated, err := f.store.Update(ctx, created.ID, ListingPatch{Title: strPtr("new"), Images: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, []string{"A", "B"}, updated.Images)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)
}

func TestUpdate_ReplacesImages(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Images: []string{"A", "B"}})
	require.NoError(t, err)

	updated, err := f.store.Update(ctx, created.ID, ListingPatch{Images: []string{"C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, updated.Images)

	got, err := f.store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, got.Images)
}

func TestUpdate_NotFoundAndInvalidStatus(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	_, err := f.store.Update(ctx, "missing", ListingPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := f.store.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)
	_, err = f.store.SetStatus(ctx, created.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	draft, err := f.store.SetStatus(ctx, created.ID, domain.ListingStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusDraft, draft.Status)
}

func TestDelete_IsIdempotent(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	_, err := f.store.Create(ctx, domain.Listing{Title: "keep"})
	require.NoError(t, err)

	events := 0
	f.store.Subscribe(func(syncbus.Event) { events++ })

	deleted, err := f.store.Delete(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, f.store.GetAll(ctx), 1)
	assert.Equal(t, 0, events)
}

func TestSearch(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	for _, l := range []domain.Listing{
		{Title: "Poulet de chair", Description: "élevage moderne"},
		{Title: "Dinde", Description: "Grosse DINDE de Noël"},
		{Title: "Oeufs frais", Description: "plateau de 30"},
	} {
		_, err := f.store.Create(ctx, l)
		require.NoError(t, err)
	}

	assert.Len(t, f.store.Search(ctx, ""), 3)
	assert.Len(t, f.store.Search(ctx, "   "), 3)

	got := f.store.Search(ctx, "dinde")
	require.Len(t, got, 1)
	assert.Equal(t, "Dinde", got[0].Title)

	got = f.store.Search(ctx, "MODERNE")
	require.Len(t, got, 1)
	assert.Equal(t, "Poulet de chair", got[0].Title)

	assert.Empty(t, f.store.Search(ctx, "lapin"))
}

func TestFilterByCategory(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	for _, c := range []string{"Poulet", "Dinde", "œufs"} {
		_, err := f.store.Create(ctx, domain.Listing{Category: c})
		require.NoError(t, err)
	}
	assert.Len(t, f.store.FilterByCategory(ctx, ""), 3)
	assert.Len(t, f.store.FilterByCategory(ctx, "DINDE"), 1)
	assert.Len(t, f.store.FilterByCategory(ctx, "oeuf"), 1)
}

func TestToggleSavedAndGetSaved(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)

	saved, err := f.store.ToggleSaved(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, saved.SavedBy)
	assert.Len(t, f.store.GetSaved(ctx, "u1"), 1)
	assert.Empty(t, f.store.GetSaved(ctx, "u2"))

	unsaved, err := f.store.ToggleSaved(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, unsaved.SavedBy)
	assert.Empty(t, f.store.GetSaved(ctx, "u1"))

	_, err = f.store.ToggleSaved(ctx, "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// yieldingBackend reschedules between reads and writes so unlocked
// read-modify-write cycles interleave.
type yieldingBackend struct {
	*storage.MemoryBackend
}

func (b yieldingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	runtime.Gosched()
	v, ok, err := b.MemoryBackend.Get(ctx, key)
	runtime.Gosched()
	return v, ok, err
}

func TestToggleSaved_ConcurrentUsersAllKept(t *testing.T) {
	clk := testutil.FixedClock()
	safe := storage.NewSafeStore(yieldingBackend{storage.NewMemoryBackend(0)}, nil, clk)
	s := NewStore(safe, clk, testutil.NewStubIDGenerator("listing"))
	ctx := context.Background()
	created, err := s.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := s.ToggleSaved(ctx, created.ID, user)
			assert.NoError(t, err)
		}("u" + strconv.Itoa(i))
	}
	wg.Wait()

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.SavedBy, 20)
}

func TestConcurrentMutationsKeepEveryChange(t *testing.T) {
	clk := testutil.FixedClock()
	safe := storage.NewSafeStore(yieldingBackend{storage.NewMemoryBackend(0)}, nil, clk)
	s := NewStore(safe, clk, testutil.NewStubIDGenerator("listing"))
	ctx := context.Background()
	target, err := s.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.Listing{Title: "lot"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.IncrementCounters(ctx, target.ID, 1, 0)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.CountInquiry(ctx, target.ID)
			assert.NoError(t, err)
		}()
		go func(user string) {
			defer wg.Done()
			_, err := s.ToggleSaved(ctx, target.ID, user)
			assert.NoError(t, err)
		}("u" + strconv.Itoa(i))
	}
	wg.Wait()

	assert.Len(t, s.GetAll(ctx), 11)
	got, err := s.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Views)
	assert.Equal(t, 10, got.Inquiries)
	assert.Len(t, got.SavedBy, 10)
}

func TestUpdate_RejectsInvalidPrice(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Title: "x", Price: 250})
	require.NoError(t, err)

	for _, price := range []float64{-1, math.NaN(), math.Inf(-1)} {
		_, err := f.store.Update(ctx, created.ID, ListingPatch{Price: &price})
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	}
	got, err := f.store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(250), got.Price)
	assert.Equal(t, float64(250), got.PricePerKg)
}

func TestCountInquiry_DoesNotNotify(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)

	var events []syncbus.Event
	unsub := f.store.Subscribe(func(ev syncbus.Event) { events = append(events, ev) })
	defer unsub()

	got, err := f.store.CountInquiry(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Inquiries)
	assert.Empty(t, events)

	_, err = f.store.CountInquiry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAll_NormalizesImages(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	require.True(t, f.store.Storage.Set(ctx, storage.ListingsKey, []domain.Listing{
		{ID: "a", Category: "Dinde", Images: []string{"blob:http://localhost/1"}},
		{ID: "b", Category: "Poulet", Images: []string{"blob:x", "https://cdn.dz/p.jpg", "chicken.png"}},
		{LegacyID: "c", Image: "/src/assets/turkey.png"},
	}))

	all := f.store.GetAll(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, []string{TurkeyImage}, all[0].Images)
	assert.Equal(t, []string{"https://cdn.dz/p.jpg", ChickenImage}, all[1].Images)
	assert.Equal(t, "c", all[2].ID)
	assert.Equal(t, []string{TurkeyImage}, all[2].Images)
	assert.NotNil(t, all[2].SavedBy)
}

func TestIncrementCounters(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	created, err := f.store.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)

	_, err = f.store.IncrementCounters(ctx, created.ID, 2, 0)
	require.NoError(t, err)
	got, err := f.store.IncrementCounters(ctx, created.ID, -5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
	assert.Equal(t, 1, got.Inquiries)
}

func TestMutationNotifiesSubscriberExactlyOnce(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	var events []syncbus.Event
	unsub := f.store.Subscribe(func(ev syncbus.Event) { events = append(events, ev) })
	defer unsub()

	created, err := f.store.Create(ctx, domain.Listing{Title: "x"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, storage.ListingsKey, events[0].Key)
	assert.Contains(t, string(events[0].Value), created.ID)
	assert.Len(t, f.store.GetAll(ctx), 1)
}

func TestStorageFullSurfacesError(t *testing.T) {
	backend := storage.NewMemoryBackend(64)
	clk := testutil.FixedClock()
	store := NewStore(storage.NewSafeStore(backend, nil, clk), clk, testutil.NewStubIDGenerator("listing"))

	_, err := store.Create(context.Background(), domain.Listing{Title: "this listing will not fit in sixty-four bytes"})
	assert.ErrorIs(t, err, domain.ErrStorageFull)
	assert.Empty(t, store.GetAll(context.Background()))
}

func TestScenario_ThreeListings(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	var ids []string
	for i, w := range []string{"Alger", "Oran", "Alger"} {
		owner := "owner-a"
		if i == 1 {
			owner = "owner-b"
		}
		l, err := f.store.Create(ctx, domain.Listing{Title: w, Wilaya: w, CreatedBy: owner})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	assert.Len(t, f.store.FilterByCategory(ctx, ""), 3)

	deleted, err := f.store.Delete(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Len(t, f.store.GetAll(ctx), 2)
	assert.Empty(t, f.store.GetByCreator(ctx, "owner-b"))
	assert.Len(t, f.store.GetByCreator(ctx, "owner-a"), 2)
}
