package services

import (
	"context"
	"fmt"

	"wardrobeapi/config"
	"wardrobeapi/dbhelper"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewKeyValueStore opens the backend selected by STORAGE_BACKEND. The
// returned func releases its connections.
func NewKeyValueStore(ctx context.Context, cfg *config.Config) (KeyValueStore, func(), error) {
	switch cfg.Server.StorageBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisKeyValueStore(client), func() { client.Close() }, nil
	case "postgres", "":
		db, err := dbhelper.SetupDB(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return NewPostgresKeyValueStore(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Server.StorageBackend)
}

// NewImageStore returns the R2 store when R2 is enabled, otherwise images
// stay inline in their refs.
func NewImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ImageStore, error) {
	if !cfg.R2.Enabled {
		return InlineImageStore{MaxBytes: cfg.Server.MaxImageBytes}, nil
	}
	awsService := &AWSService{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		AccessKeySecret: cfg.R2.AccessKeySecret,
		URLTTL:          cfg.R2.URLTTL,
	}
	if err := awsService.InitPresignClient(ctx); err != nil {
		return nil, err
	}
	urlCache, err := NewURLCacheService(awsService, cfg.R2.BucketName, cfg.R2.URLTTL, logger)
	if err != nil {
		return nil, err
	}
	return NewR2ImageStore(awsService, urlCache, cfg.R2.BucketName, cfg.Server.MaxImageBytes), nil
}

// NewStylistLLM builds the Gemini backend with the configured models.
func NewStylistLLM(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*GoogleStylistLLM, error) {
	llm, err := NewGoogleStylistLLM(ctx, cfg.Gemini.APIKey, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Gemini.ClassificationModel != "" {
		llm.ClassificationModel = cfg.Gemini.ClassificationModel
	}
	if cfg.Gemini.RecommendationModel != "" {
		llm.RecommendationModel = cfg.Gemini.RecommendationModel
	}
	if cfg.Gemini.VisualizationModel != "" {
		llm.VisualizationModel = cfg.Gemini.VisualizationModel
	}
	return llm, nil
}
