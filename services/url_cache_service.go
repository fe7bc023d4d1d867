package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"go.uber.org/zap"
)

const DefaultPresignedURLTTL = 15 * time.Minute

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService hands out presigned read URLs for wardrobe photos. A URL
// is reused until shortly before it stops being valid.
type URLCacheService struct {
	cache      *cache.LoadableCache[string]
	bucketName string
	entryTTL   time.Duration
}

func NewURLCacheService(presigner AWSServiceProvider, bucketName string, urlTTL time.Duration, logger *zap.Logger) (*URLCacheService, error) {
	if urlTTL <= 0 {
		urlTTL = DefaultPresignedURLTTL
	}
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	s := &URLCacheService{bucketName: bucketName, entryTTL: urlTTL * 4 / 5}
	load := func(ctx context.Context, key any) (string, []store.Option, error) {
		objectKey, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("url cache key must be a string, got %T", key)
		}
		logger.Debug("presigning wardrobe image", zap.String("bucket", bucketName), zap.String("key", objectKey))
		url, err := presigner.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
		if err != nil {
			return "", nil, err
		}
		return url, []store.Option{store.WithExpiration(s.entryTTL), store.WithCost(1)}, nil
	}
	s.cache = cache.NewLoadable[string](load, cache.New[string](ristretto_store.NewRistretto(ristrettoCache)))
	return s, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	url, err := s.cache.Get(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("presign read of %s/%s: %w", s.bucketName, objectKey, err)
	}
	return url, nil
}
