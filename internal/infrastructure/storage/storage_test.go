package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "b", `{"n":1}`))
	require.NoError(t, b.Set(ctx, "a", `[1,2]`))
	require.NoError(t, b.Set(ctx, "b", `{"n":2}`))

	v, ok, err := b.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"n":2}`, v)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, b.Remove(ctx, "a"))
	require.NoError(t, b.Remove(ctx, "a"))
	_, ok, err = b.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, b.Ping(ctx))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend(0))
}

func TestMemoryBackend_Quota(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(10)
	require.NoError(t, m.Set(ctx, "k", "12345"))
	assert.ErrorIs(t, m.Set(ctx, "j", "123456789"), ErrQuotaExceeded)
	require.NoError(t, m.Set(ctx, "k", "123456789"))
	assert.Equal(t, int64(10), m.Used())
	require.NoError(t, m.Remove(ctx, "k"))
	assert.Equal(t, int64(0), m.Used())
}

func newTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisBackend(t *testing.T) {
	exerciseBackend(t, &RedisBackend{Client: newTestRedis(t), Prefix: "souk:kv:"})
}

func TestRedisBackend_PrefixIsolationAndQuota(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	require.NoError(t, rdb.Set(ctx, "other:thing", strings.Repeat("x", 100), 0).Err())

	b := &RedisBackend{Client: rdb, Prefix: "souk:kv:", QuotaBytes: 20}
	require.NoError(t, b.Set(ctx, "k", "1234567890"))
	assert.ErrorIs(t, b.Set(ctx, "j", "1234567890"), ErrQuotaExceeded)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestGormBackend(t *testing.T) {
	g := &GormBackend{DB: newTestDB(t)}
	require.NoError(t, g.Migrate())
	exerciseBackend(t, g)
}

func TestGormBackend_Quota(t *testing.T) {
	ctx := context.Background()
	g := &GormBackend{DB: newTestDB(t), QuotaBytes: 30}
	require.NoError(t, g.Migrate())
	require.NoError(t, g.Set(ctx, "a", `"0123456789"`))
	assert.ErrorIs(t, g.Set(ctx, "b", `"0123456789012345"`), ErrQuotaExceeded)
	require.NoError(t, g.Set(ctx, "a", `"01234567890123456789"`))
}

func TestSafeStore_GetFallsBackOnMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(0)
	s := NewSafeStore(b, nil, nil)
	require.NoError(t, b.Set(ctx, "broken", "{not json"))

	assert.Equal(t, []string{"def"}, Load(ctx, s, "missing", []string{"def"}))
	assert.Equal(t, 7, Load(ctx, s, "broken", 7))

	require.True(t, s.Set(ctx, "list", []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, Load[[]string](ctx, s, "list", nil))
}

func TestSafeStore_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := syncbus.New()
	var events []syncbus.Event
	bus.Subscribe(func(ev syncbus.Event) { events = append(events, ev) })

	s := NewSafeStore(NewMemoryBackend(0), bus, testutil.FixedClock())
	require.True(t, s.Set(ctx, "k", map[string]int{"n": 1}))
	require.True(t, s.Remove(ctx, "k"))

	require.Len(t, events, 2)
	assert.Equal(t, syncbus.OpSet, events[0].Op)
	assert.JSONEq(t, `{"n":1}`, string(events[0].Value))
	assert.Equal(t, syncbus.OpRemove, events[1].Op)
}

func TestSafeStore_SetQuietDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	bus := syncbus.New()
	var events []syncbus.Event
	bus.Subscribe(func(ev syncbus.Event) { events = append(events, ev) })

	s := NewSafeStore(NewMemoryBackend(0), bus, testutil.FixedClock())
	require.True(t, s.SetQuiet(ctx, MyListingsKey, []string{"a"}))
	assert.Empty(t, events)
	assert.Equal(t, []string{"a"}, Load[[]string](ctx, s, MyListingsKey, nil))
}

func fillInquiries(t *testing.T, b Backend, n int) {
	t.Helper()
	items := make([]string, n)
	for i := range items {
		items[i] = "inquiry" + strconv.Itoa(1000+i)
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, b.Set(context.Background(), InquiriesKey, string(data)))
}

func TestSafeStore_QuotaExceededRecovery(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(3000)
	fillInquiries(t, b, 150)

	bus := syncbus.New()
	var keys []string
	bus.Subscribe(func(ev syncbus.Event) { keys = append(keys, ev.Key) })
	s := NewSafeStore(b, bus, nil)

	big := strings.Repeat("x", 1000)
	require.ErrorIs(t, b.Set(ctx, "big", `"`+big+`"`), ErrQuotaExceeded)

	assert.True(t, s.Set(ctx, "big", big))
	assert.Len(t, Load[[]string](ctx, s, InquiriesKey, nil), MaxInquiries)
	assert.Equal(t, big, Load(ctx, s, "big", ""))
	assert.Equal(t, []string{InquiriesKey, "big"}, keys)
}

func TestSafeStore_QuotaExceededAfterCleanupReturnsFalse(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(100)
	bus := syncbus.New()
	published := 0
	bus.Subscribe(func(syncbus.Event) { published++ })
	s := NewSafeStore(b, bus, nil)

	assert.False(t, s.Set(ctx, "big", strings.Repeat("x", 200)))
	_, ok, _ := b.Get(ctx, "big")
	assert.False(t, ok)
	assert.Equal(t, 0, published)
}

func TestSafeStore_CleanupRemovesExpiredOTP(t *testing.T) {
	ctx := context.Background()
	clk := testutil.FixedClock()
	b := NewMemoryBackend(0)
	s := NewSafeStore(b, nil, clk)

	old := clk.Now().Add(-2 * time.Hour).UnixMilli()
	fresh := clk.Now().Add(-10 * time.Minute).UnixMilli()
	require.NoError(t, b.Set(ctx, "mock_otp_a@x.dz", `"123456"`))
	require.NoError(t, b.Set(ctx, "mock_otp_time_a@x.dz", strconv.FormatInt(old, 10)))
	require.NoError(t, b.Set(ctx, "mock_otp_verified_a@x.dz", "true"))
	require.NoError(t, b.Set(ctx, "mock_otp_b@x.dz", `"654321"`))
	require.NoError(t, b.Set(ctx, "mock_otp_time_b@x.dz", strconv.FormatInt(fresh, 10)))

	report := s.Cleanup(ctx)
	assert.ElementsMatch(t, []string{"mock_otp_a@x.dz", "mock_otp_time_a@x.dz", "mock_otp_verified_a@x.dz"}, report.RemovedKeys)

	keys, _ := b.Keys(ctx)
	assert.Equal(t, []string{"mock_otp_b@x.dz", "mock_otp_time_b@x.dz"}, keys)
}

func TestSafeStore_CleanupTruncatesSavedListings(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(0)
	s := NewSafeStore(b, nil, nil)
	ids := make([]int, 80)
	for i := range ids {
		ids[i] = i
	}
	require.True(t, s.Set(ctx, SavedListingsKey, ids))

	report := s.Cleanup(ctx)
	assert.Equal(t, []string{SavedListingsKey}, report.Truncated)
	got := Load[[]int](ctx, s, SavedListingsKey, nil)
	assert.Equal(t, ids[:MaxSavedListings], got)
}

func TestSafeStore_Info(t *testing.T) {
	ctx := context.Background()
	s := NewSafeStore(NewMemoryBackend(0), nil, nil)
	require.True(t, s.Set(ctx, "a", "xy"))
	require.True(t, s.Set(ctx, "b", 12))

	info := s.Info(ctx)
	assert.Equal(t, 2, info.ItemCount)
	assert.Equal(t, int64(6), info.TotalBytes)
	assert.Equal(t, int64(4), info.Items["a"])
	assert.Equal(t, "0.01", info.TotalKB)
}
