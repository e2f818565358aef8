package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the row layout of the kv_entries table (see pkg/migrate).
type KVEntry struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	Origin    string    `gorm:"column:origin;not null;default:''"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }

// SQL persists values in a relational table. It does not implement Watcher:
// stores on this backend only see other writers' changes after a restart or an
// explicit reload.
type SQL struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &SQL{db: db, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ?", normalizeScope(scope), key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv entry: %w", err)
	}
	return entry.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, scope, key, value string) error {
	entry := KVEntry{
		Scope:     normalizeScope(scope),
		Key:       key,
		Value:     value,
		Origin:    OriginFromContext(ctx),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "origin", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, scope, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ?", normalizeScope(scope), key).
		Delete(&KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
