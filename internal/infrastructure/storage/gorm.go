package storage

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the kv_entries table.
type Entry struct {
	Key       string         `gorm:"column:entry_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	Size      int64          `gorm:"column:size;not null;default:0"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "kv_entries" }

// GormBackend stores documents in a SQL table through GORM (Postgres or SQLite).
type GormBackend struct {
	DB         *gorm.DB
	QuotaBytes int64
}

// Migrate creates the kv_entries table.
func (g *GormBackend) Migrate() error {
	return g.DB.AutoMigrate(&Entry{})
}

func (g *GormBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var rows []Entry
	if err := g.DB.WithContext(ctx).Where("entry_key = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return string(rows[0].Value), true, nil
}

func (g *GormBackend) Set(ctx context.Context, key, value string) error {
	db := g.DB.WithContext(ctx)
	size := entrySize(key, value)
	if g.QuotaBytes > 0 {
		var used int64
		if err := db.Model(&Entry{}).Where("entry_key <> ?", key).Select("COALESCE(SUM(size), 0)").Scan(&used).Error; err != nil {
			return err
		}
		if used+size > g.QuotaBytes {
			return ErrQuotaExceeded
		}
	}
	e := Entry{Key: key, Value: datatypes.JSON(value), Size: size, UpdatedAt: time.Now().UTC()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "size", "updated_at"}),
	}).Create(&e).Error
	if err != nil && isDiskFull(err) {
		return ErrQuotaExceeded
	}
	return err
}

func (g *GormBackend) Remove(ctx context.Context, key string) error {
	return g.DB.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}

func (g *GormBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := g.DB.WithContext(ctx).Model(&Entry{}).Order("entry_key").Pluck("entry_key", &keys).Error
	return keys, err
}

func (g *GormBackend) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isDiskFull(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "sqlite_full")
}
