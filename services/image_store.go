package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// ImageStore keeps item photos and rendered outfits. Refs returned by Save
// are what ClothingItem.ImageURL holds.
type ImageStore interface {
	Save(ctx context.Context, key string, img InlineImage) (string, error)
	Load(ctx context.Context, ref string) (InlineImage, error)
	DisplayURL(ctx context.Context, ref string) (string, error)
}

// ObjectKey builds a storage key such as "clothes/jane-doe/<id>".
func ObjectKey(kind, username, id string) string {
	return fmt.Sprintf("%s/%s/%s", kind, slug.Make(username), id)
}

// InlineImageStore keeps images inside their refs as data URLs. Remote
// refs are downloaded up to MaxBytes.
type InlineImageStore struct {
	MaxBytes int64
}

func (InlineImageStore) Save(ctx context.Context, key string, img InlineImage) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrImageRequired
	}
	return img.DataURL(), nil
}

func (s InlineImageStore) Load(ctx context.Context, ref string) (InlineImage, error) {
	switch {
	case ref == "":
		return InlineImage{}, ErrImageNotFound
	case IsRemoteURL(ref):
		return ReadRemoteImage(ctx, ref, s.MaxBytes)
	case IsDataURL(ref):
		return ParseDataURL(ref)
	}
	return InlineImage{}, fmt.Errorf("%w: %.20s", ErrUnsupportedImageStore, ref)
}

func (InlineImageStore) DisplayURL(ctx context.Context, ref string) (string, error) {
	return ref, nil
}

const r2RefPrefix = "r2:"

// R2ImageStore uploads images to an R2 bucket and reads them back through
// cached presigned URLs. Refs it does not own are handled inline.
type R2ImageStore struct {
	AWSService AWSServiceProvider
	URLCache   URLCacheServiceProvider
	BucketName string
	inline     InlineImageStore
}

func NewR2ImageStore(awsService AWSServiceProvider, urlCache URLCacheServiceProvider, bucketName string, maxBytes int64) *R2ImageStore {
	return &R2ImageStore{
		AWSService: awsService,
		URLCache:   urlCache,
		BucketName: bucketName,
		inline:     InlineImageStore{MaxBytes: maxBytes},
	}
}

func (s *R2ImageStore) Save(ctx context.Context, key string, img InlineImage) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrImageRequired
	}
	objectKey := fmt.Sprintf("%s.%s", key, img.Extension())
	uploadURL, err := s.AWSService.PresignLink(ctx, s.BucketName, objectKey)
	if err != nil {
		return "", fmt.Errorf("presign upload of %s: %w", objectKey, err)
	}
	if _, err := s.AWSService.UploadToPresignedURL(ctx, uploadURL, img.Data); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return r2RefPrefix + objectKey, nil
}

func (s *R2ImageStore) Load(ctx context.Context, ref string) (InlineImage, error) {
	objectKey, ok := strings.CutPrefix(ref, r2RefPrefix)
	if !ok {
		return s.inline.Load(ctx, ref)
	}
	url, err := s.URLCache.GetReadURL(ctx, objectKey)
	if err != nil {
		return InlineImage{}, fmt.Errorf("read url for %s: %w", objectKey, err)
	}
	return ReadRemoteImage(ctx, url, s.inline.MaxBytes)
}

func (s *R2ImageStore) DisplayURL(ctx context.Context, ref string) (string, error) {
	objectKey, ok := strings.CutPrefix(ref, r2RefPrefix)
	if !ok {
		return ref, nil
	}
	return s.URLCache.GetReadURL(ctx, objectKey)
}
