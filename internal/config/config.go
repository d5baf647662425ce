package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env      string
	Port     string
	LogLevel string

	StorageDriver     string // memory, redis, sqlite or postgres
	RedisURL          string
	DatabaseURL       string
	StoragePrefix     string
	StorageQuotaBytes int64

	SyncTransport string // local, redis or nats
	SyncChannel   string
	NatsURL       string

	// Mock flags: nil when unset so the data service can apply its own default.
	UseMock         *bool
	UseMockListings *bool
	UseMockUsers    *bool

	RemoteAPIURL  string
	RemoteTimeout time.Duration

	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	SeedOnStart         bool
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", "memory")
	viper.SetDefault("STORAGE_PREFIX", "souk:")
	viper.SetDefault("SYNC_TRANSPORT", "local")
	viper.SetDefault("SYNC_CHANNEL", "souk.sync")
	viper.SetDefault("REMOTE_TIMEOUT", "10s")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		StorageDriver:       strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		RedisURL:            viper.GetString("REDIS_URL"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		StoragePrefix:       viper.GetString("STORAGE_PREFIX"),
		StorageQuotaBytes:   viper.GetInt64("STORAGE_QUOTA_BYTES"),
		SyncTransport:       strings.ToLower(viper.GetString("SYNC_TRANSPORT")),
		SyncChannel:         viper.GetString("SYNC_CHANNEL"),
		NatsURL:             viper.GetString("NATS_URL"),
		UseMock:             flag(viper.GetString("USE_MOCK")),
		UseMockListings:     flag(viper.GetString("USE_MOCK_LISTINGS")),
		UseMockUsers:        flag(viper.GetString("USE_MOCK_USERS")),
		RemoteAPIURL:        strings.TrimRight(viper.GetString("REMOTE_API_URL"), "/"),
		RemoteTimeout:       viper.GetDuration("REMOTE_TIMEOUT"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SeedOnStart:         viper.GetBool("SEED_ON_START"),
	}, nil
}

// flag reads "1"/"0" (or true/false); anything else is unset.
func flag(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		v = true
	case "0", "false":
		v = false
	default:
		return nil
	}
	return &v
}
