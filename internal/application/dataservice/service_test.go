package dataservice

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"souk-backend/internal/application/listings"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/pkg/response"
	"souk-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fixture struct {
	svc     *Service
	backend *storage.MemoryBackend
	bus     *syncbus.Bus
	clock   *testutil.StubClock
}

func boolPtr(b bool) *bool          { return &b }
func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }

func setup(t *testing.T, remote Remote, defaults ModeDefaults) fixture {
	t.Helper()
	backend := storage.NewMemoryBackend(0)
	bus := syncbus.New()
	clk := testutil.FixedClock()
	safe := storage.NewSafeStore(backend, bus, clk)
	svc := New(Context{
		Storage:   safe,
		Listings:  listings.NewStore(safe, clk, testutil.NewStubIDGenerator("listing")),
		Remote:    remote,
		Clock:     clk,
		IDs:       testutil.NewStubIDGenerator("id"),
		Generator: mockdata.NewGenerator(42, clk),
		Defaults:  defaults,
	})
	require.NoError(t, svc.Init(context.Background()))
	t.Cleanup(svc.Dispose)
	return fixture{svc: svc, backend: backend, bus: bus, clock: clk}
}

func setupMock(t *testing.T) fixture {
	return setup(t, nil, ModeDefaults{})
}

// recorder counts bus events per key.
type recorder struct {
	mu     sync.Mutex
	events []syncbus.Event
}

func record(f fixture, keys ...string) *recorder {
	r := &recorder{}
	f.bus.Subscribe(func(e syncbus.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	}, keys...)
	return r
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// fakeRemote answers every call with body, or fails with err.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	body  any
	err   error
}

func (r *fakeRemote) Do(_ context.Context, method, path string, _, out any) error {
	r.mu.Lock()
	r.calls = append(r.calls, method+" "+path)
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func TestInit_RequiresStorage(t *testing.T) {
	svc := New(Context{})
	assert.Error(t, svc.Init(context.Background()))
}

func TestModes_DefaultOnOutsideProduction(t *testing.T) {
	f := setupMock(t)
	m := f.svc.Modes()
	assert.True(t, m.Mock)
	assert.True(t, m.Listings)
	assert.True(t, m.Users)
	assert.False(t, m.RemoteConfigured)
}

func TestModes_ProductionDefaultsOff(t *testing.T) {
	f := setup(t, &fakeRemote{}, ModeDefaults{Production: true})
	m := f.svc.Modes()
	assert.False(t, m.Mock)
	assert.False(t, m.Listings)
	assert.True(t, m.RemoteConfigured)
}

func TestModes_StoredFlagWinsOverConfig(t *testing.T) {
	f := setup(t, &fakeRemote{}, ModeDefaults{UseMock: boolPtr(false), UseMockListings: boolPtr(false), UseMockUsers: boolPtr(false)})
	assert.False(t, f.svc.Modes().Listings)

	res := f.svc.SetModes(context.Background(), ModesPatch{Listings: boolPtr(true)})
	require.True(t, res.Success)
	assert.True(t, res.Data.Listings)
	assert.False(t, res.Data.Users)
	assert.False(t, res.Data.Mock)
}

func TestModes_GlobalFlagForcesSubFlags(t *testing.T) {
	f := setup(t, &fakeRemote{}, ModeDefaults{UseMockListings: boolPtr(false), UseMockUsers: boolPtr(false)})
	res := f.svc.SetModes(context.Background(), ModesPatch{Mock: boolPtr(true)})
	require.True(t, res.Success)
	assert.True(t, res.Data.Listings)
	assert.True(t, res.Data.Users)
}

func TestModes_FollowExternalWrites(t *testing.T) {
	f := setup(t, &fakeRemote{}, ModeDefaults{Production: true})
	require.False(t, f.svc.Modes().Mock)

	// another writer flips the flag directly in storage
	f.svc.Storage().Set(context.Background(), storage.UseMockKey, true)
	assert.True(t, f.svc.Modes().Mock)
}

func TestPassthrough_UsesRemoteWhenMockOff(t *testing.T) {
	remote := &fakeRemote{body: response.OK(ListingPage{Pagination: Pagination{Page: 7}})}
	f := setup(t, remote, ModeDefaults{Production: true})

	res := f.svc.ListListings(context.Background(), ListParams{Page: 7})
	require.True(t, res.Success)
	assert.Equal(t, 7, res.Data.Pagination.Page)
	assert.Equal(t, []string{"GET /listings?page=7"}, remote.calls)
}

func TestPassthrough_FallsBackToLocalOnRemoteFailure(t *testing.T) {
	remote := &fakeRemote{err: errors.New("connection refused")}
	f := setup(t, remote, ModeDefaults{Production: true})
	ctx := context.Background()
	_, err := f.svc.Listings().Create(ctx, testListing("Dinde"))
	require.NoError(t, err)

	res := f.svc.ListListings(ctx, ListParams{})
	require.True(t, res.Success)
	assert.Len(t, res.Data.Listings, 1)
	assert.Len(t, remote.calls, 1)
}

func TestClearMockCaches(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	_, err := f.svc.Listings().Create(ctx, testListing("Poulet"))
	require.NoError(t, err)
	f.svc.Storage().Set(ctx, storage.OrdersKey, []string{"x"})

	res := f.svc.ClearMockCaches(ctx)
	require.True(t, res.Success)
	assert.ElementsMatch(t, storage.MockCacheKeys, res.Data)
	assert.Empty(t, f.svc.Listings().GetAll(ctx))
	_, ok := f.svc.Storage().GetRaw(ctx, storage.OrdersKey)
	assert.False(t, ok)
}

func TestStorageInfoAndCleanup(t *testing.T) {
	f := setupMock(t)
	ctx := context.Background()
	f.svc.Storage().Set(ctx, storage.ProfileKey, map[string]string{"id": "1"})

	info := f.svc.StorageInfo(ctx)
	require.True(t, info.Success)
	assert.Equal(t, 1, info.Data.ItemCount)

	clean := f.svc.CleanupStorage(ctx)
	assert.True(t, clean.Success)
}
