package services_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	sample := test.SampleImage()

	parsed, err := services.ParseDataURL(sample.DataURL())
	require.NoError(t, err)
	assert.Equal(t, sample, parsed)

	bare := base64.StdEncoding.EncodeToString(sample.Data)
	parsed, err = services.ParseDataURL(bare)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", parsed.MIMEType)
	assert.Equal(t, sample.Data, parsed.Data)

	parsed, err = services.ParseDataURL("data:image/jpg;base64," + bare)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", parsed.MIMEType)

	parsed, err = services.ParseDataURL("data:image/webp;base64," + bare)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", parsed.MIMEType)
	assert.Equal(t, "webp", parsed.Extension())
}

func TestParseDataURLErrors(t *testing.T) {
	_, err := services.ParseDataURL("   ")
	assert.ErrorIs(t, err, services.ErrImageRequired)

	_, err = services.ParseDataURL("data:image/gif;base64,R0lGODlh")
	assert.ErrorIs(t, err, services.ErrInvalidImage)

	_, err = services.ParseDataURL("data:image/png;base64,@@not-base64@@")
	assert.ErrorIs(t, err, services.ErrInvalidImage)

	_, err = services.ParseDataURL("data:image/png;base64,")
	assert.ErrorIs(t, err, services.ErrImageRequired)
}

func imageServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReadRemoteImage(t *testing.T) {
	sample := test.SampleImage()
	server := imageServer(t, sample.Data)

	img, err := services.ReadRemoteImage(context.Background(), server.URL+"/shirt.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, sample.Data, img.Data)

	_, err = services.ReadRemoteImage(context.Background(), server.URL+"/missing.png", 0)
	assert.Error(t, err)

	text := imageServer(t, []byte("hello world"))
	_, err = services.ReadRemoteImage(context.Background(), text.URL+"/note.txt", 0)
	assert.ErrorIs(t, err, services.ErrInvalidImage)
}

func TestInlineImageStore(t *testing.T) {
	ctx := context.Background()
	store := services.InlineImageStore{}
	sample := test.SampleImage()

	ref, err := store.Save(ctx, services.ObjectKey("clothes", "alice", "1"), sample)
	require.NoError(t, err)
	assert.True(t, services.IsDataURL(ref))

	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, sample, loaded)

	display, err := store.DisplayURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, display)

	server := imageServer(t, sample.Data)
	remote, err := store.Load(ctx, server.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, sample.Data, remote.Data)

	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, services.ErrImageNotFound)
	_, err = store.Load(ctx, "r2:clothes/alice/1.png")
	assert.ErrorIs(t, err, services.ErrUnsupportedImageStore)
	_, err = store.Save(ctx, "k", services.InlineImage{})
	assert.ErrorIs(t, err, services.ErrImageRequired)
}

func TestR2ImageStore(t *testing.T) {
	ctx := context.Background()
	sample := test.SampleImage()
	server := imageServer(t, sample.Data)
	aws := &test.AWSProviderMock{}
	store := services.NewR2ImageStore(aws, test.URLCacheMock{BaseURL: server.URL}, "wardrobe", 0)

	ref, err := store.Save(ctx, services.ObjectKey("clothes", "Alice Smith", "item-1"), sample)
	require.NoError(t, err)
	assert.Equal(t, "r2:clothes/alice-smith/item-1.png", ref)
	assert.Equal(t, sample.Data, aws.Objects["https://fakebucketurl.com/wardrobe/clothes/alice-smith/item-1.png"])

	display, err := store.DisplayURL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/clothes/alice-smith/item-1.png", display)

	loaded, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, sample.Data, loaded.Data)

	inline := sample.DataURL()
	display, err = store.DisplayURL(ctx, inline)
	require.NoError(t, err)
	assert.Equal(t, inline, display)
	loaded, err = store.Load(ctx, inline)
	require.NoError(t, err)
	assert.Equal(t, sample, loaded)
}

func TestURLCacheServicePresignsReads(t *testing.T) {
	ctx := context.Background()
	cache, err := services.NewURLCacheService(&test.AWSProviderMock{}, "wardrobe", time.Minute, test.NopLogger())
	require.NoError(t, err)

	url, err := cache.GetReadURL(ctx, "clothes/alice/item-1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://fakebucketurl.com/wardrobe/clothes/alice/item-1.png?signed=1", url)

	again, err := cache.GetReadURL(ctx, "clothes/alice/item-1.png")
	require.NoError(t, err)
	assert.Equal(t, url, again)

	empty, err := cache.GetReadURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadRemoteImageRejectsOversizedBody(t *testing.T) {
	ctx := context.Background()
	sample := test.SampleImage()

	streamed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(sample.Data)
		chunk := make([]byte, 4096)
		for i := 0; i < 16; i++ {
			w.Write(chunk)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(streamed.Close)

	_, err := services.ReadRemoteImage(ctx, streamed.URL+"/huge.png", 8<<10)
	assert.ErrorIs(t, err, services.ErrImageTooLarge)

	_, err = services.InlineImageStore{MaxBytes: 8 << 10}.Load(ctx, streamed.URL+"/huge.png")
	assert.ErrorIs(t, err, services.ErrImageTooLarge)

	small := imageServer(t, sample.Data)
	_, err = services.ReadRemoteImage(ctx, small.URL+"/shirt.png", int64(len(sample.Data)-1))
	assert.ErrorIs(t, err, services.ErrImageTooLarge)

	img, err := services.ReadRemoteImage(ctx, small.URL+"/shirt.png", int64(len(sample.Data)))
	require.NoError(t, err)
	assert.Equal(t, sample.Data, img.Data)
}
