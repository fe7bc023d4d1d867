package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wardrobeapi/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Key layout shared by every store implementation.
const (
	UsersKey           = "smart-wardrobe-users"
	sessionKeyPrefix   = "smart-wardrobe-session-"
	inventoryKeyPrefix = "smart-wardrobe-inventory-"
	draftKeyPrefix     = "smart-wardrobe-draft-"
	stylistKeyPrefix   = "smart-wardrobe-stylist-"
)

func SessionKey(sessionID string) string  { return sessionKeyPrefix + sessionID }
func InventoryKey(username string) string { return inventoryKeyPrefix + username }
func DraftKey(username string) string     { return draftKeyPrefix + username }
func StylistKey(username string) string   { return stylistKeyPrefix + username }

// KeyValueStore is the durable string store behind inventories, accounts
// and workflow state. Set must be durable when it returns nil.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

type PostgresKeyValueStore struct {
	DB *gorm.DB
}

func NewPostgresKeyValueStore(db *gorm.DB) *PostgresKeyValueStore {
	return &PostgresKeyValueStore{DB: db}
}

func (s *PostgresKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record models.KeyValueRecord
	result := s.DB.WithContext(ctx).Where("key = ?", key).Take(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if result.Error != nil {
		return "", false, fmt.Errorf("read %s: %w", key, result.Error)
	}
	return record.Value, true, nil
}

func (s *PostgresKeyValueStore) Set(ctx context.Context, key string, value string) error {
	record := models.KeyValueRecord{Key: key, Value: value}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *PostgresKeyValueStore) Delete(ctx context.Context, key string) error {
	err := s.DB.WithContext(ctx).Where("key = ?", key).Delete(&models.KeyValueRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

type RedisKeyValueStore struct {
	Client redis.UniversalClient
}

func NewRedisKeyValueStore(client redis.UniversalClient) *RedisKeyValueStore {
	return &RedisKeyValueStore{Client: client}
}

func (s *RedisKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisKeyValueStore) Set(ctx context.Context, key string, value string) error {
	if err := s.Client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *RedisKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := s.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// KeyLocker serializes read-modify-write cycles on one key within a process.
type KeyLocker struct {
	locks sync.Map
}

func (l *KeyLocker) Lock(key string) func() {
	value, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

var defaultLocker = &KeyLocker{}
