package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resume-analyzer/domain"
)

// KVEntry is the row layout of the SQL key-value store.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:longtext"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// SQLKV is a key-value store on top of gorm.
type SQLKV struct {
	db     *gorm.DB
	prefix string
}

// NewMySQLConnection opens dsn and migrates the key-value table.
func NewMySQLConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("mysql dsn is not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// NewSQLKV migrates the schema on db and returns the store.
func NewSQLKV(db *gorm.DB, prefix string) (*SQLKV, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLKV{db: db, prefix: prefix}, nil
}

func (s *SQLKV) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("`key` = ?", s.prefix+key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sql get: %w", err)
	}
	return entry.Value, true, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	entry := KVEntry{Key: s.prefix + key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sql set: %w", err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("`key` = ?", s.prefix+key).Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("sql delete: %w", err)
	}
	return nil
}

func (s *SQLKV) List(ctx context.Context, pattern string, withValues bool) ([]domain.KVItem, error) {
	var entries []KVEntry
	q := s.db.WithContext(ctx).
		Where("`key` LIKE ? ESCAPE '!'", globToLike(s.prefix+pattern)).
		Order("`key`")
	if !withValues {
		q = q.Select("`key`")
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("sql list: %w", err)
	}

	items := make([]domain.KVItem, 0, len(entries))
	for _, e := range entries {
		item := domain.KVItem{Key: strings.TrimPrefix(e.Key, s.prefix)}
		if withValues {
			item.Value = e.Value
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *SQLKV) Flush(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("`key` LIKE ? ESCAPE '!'", globToLike(s.prefix)+"%").
		Delete(&KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("sql flush: %w", err)
	}
	return nil
}

// globToLike turns a '*' / '?' glob into a LIKE pattern escaped with '!'.
func globToLike(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '!':
			b.WriteByte('!')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
