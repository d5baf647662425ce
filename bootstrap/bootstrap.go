package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"souk-backend/internal/application/appstate"
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/application/listings"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/config"
	"souk-backend/internal/infrastructure/database"
	"souk-backend/internal/infrastructure/remote"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/pkg/clock"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const natsConnectTimeout = 5 * time.Second

// Deps is the data layer shared by the API server and soukctl.
type Deps struct {
	Config  *config.Config
	Redis   *redis.Client
	DB      *gorm.DB
	Store   *storage.SafeStore
	Bus     *syncbus.Bus
	Relay   syncbus.Relay
	Remote  *remote.Client
	Service *dataservice.Service
	State   *appstate.Service

	closers []func()
}

// Open wires storage, the sync bus and its relay, the remote client and the data service
// from cfg. Call Close when done, also after a failed Open.
func Open(ctx context.Context, cfg *config.Config) (d *Deps, err error) {
	d = &Deps{Config: cfg, Bus: syncbus.New()}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return d, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		d.Redis = redis.NewClient(opts)
		d.onClose(func() { _ = d.Redis.Close() })
	}

	backend, err := d.openBackend(ctx)
	if err != nil {
		return d, err
	}
	clk := clock.RealClock{}
	d.Store = storage.NewSafeStore(backend, d.Bus, clk)
	if err := d.Store.Ping(ctx); err != nil {
		return d, fmt.Errorf("storage %s unreachable: %w", cfg.StorageDriver, err)
	}

	if err := d.startRelay(ctx); err != nil {
		return d, err
	}

	dc := dataservice.Context{
		Storage:   d.Store,
		Listings:  listings.NewStore(d.Store, clk, nil),
		Clock:     clk,
		Generator: mockdata.NewGenerator(0, clk),
		Defaults: dataservice.ModeDefaults{
			UseMock:         cfg.UseMock,
			UseMockListings: cfg.UseMockListings,
			UseMockUsers:    cfg.UseMockUsers,
			Production:      cfg.IsProduction(),
		},
	}
	if cfg.RemoteAPIURL != "" {
		d.Remote = &remote.Client{BaseURL: cfg.RemoteAPIURL, Timeout: cfg.RemoteTimeout}
		dc.Remote = d.Remote
	}
	d.Service = dataservice.New(dc)
	if err := d.Service.Init(ctx); err != nil {
		return d, err
	}
	d.onClose(d.Service.Dispose)
	d.State = appstate.NewService(d.Store, d.Service.Listings(), clk)
	return d, nil
}

func (d *Deps) openBackend(ctx context.Context) (storage.Backend, error) {
	cfg := d.Config
	switch cfg.StorageDriver {
	case "", "memory":
		return storage.NewMemoryBackend(cfg.StorageQuotaBytes), nil
	case "redis":
		if d.Redis == nil {
			return nil, errors.New("STORAGE_DRIVER=redis requires REDIS_URL")
		}
		return &storage.RedisBackend{Client: d.Redis, Prefix: cfg.StoragePrefix, QuotaBytes: cfg.StorageQuotaBytes}, nil
	case "sqlite", "postgres":
		db, err := database.Open(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.DB = db
		d.onClose(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		g := &storage.GormBackend{DB: db, QuotaBytes: cfg.StorageQuotaBytes}
		if err := g.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate kv_entries: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func (d *Deps) startRelay(ctx context.Context) error {
	cfg := d.Config
	switch cfg.SyncTransport {
	case "", "local":
		return nil
	case "redis":
		if d.Redis == nil {
			return errors.New("SYNC_TRANSPORT=redis requires REDIS_URL")
		}
		d.Relay = &syncbus.RedisRelay{Client: d.Redis, Channel: cfg.SyncChannel, Bus: d.Bus}
	case "nats":
		nc, err := syncbus.ConnectNATS(cfg.NatsURL, natsConnectTimeout)
		if err != nil {
			return err
		}
		d.onClose(nc.Close)
		d.Relay = &syncbus.NatsRelay{Conn: nc, Subject: cfg.SyncChannel, Bus: d.Bus}
	default:
		return fmt.Errorf("unsupported SYNC_TRANSPORT %q", cfg.SyncTransport)
	}
	if err := d.Relay.Start(ctx); err != nil {
		return err
	}
	relay := d.Relay
	d.onClose(func() {
		if err := relay.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close sync relay")
		}
	})
	return nil
}

// SeedIfEmpty loads the demo dataset when no listings are stored yet.
func (d *Deps) SeedIfEmpty(ctx context.Context) {
	if len(d.Service.Listings().GetAll(ctx)) > 0 {
		return
	}
	if r := d.Service.SeedDemoData(ctx, mockdata.DefaultOptions(), false); !r.Success {
		log.Warn().Str("message", r.Message).Msg("Seeding on start failed")
	}
}

func (d *Deps) onClose(fn func()) {
	d.closers = append(d.closers, fn)
}

// Close releases resources in reverse order of acquisition. Safe to call more than once.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
