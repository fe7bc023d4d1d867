package test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"wardrobeapi/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const JWTSecret = "test-secret"

func JsonString(model interface{}) string {
	data, _ := json.Marshal(model)
	return string(data)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	var body string
	if param != nil {
		body = JsonString(param)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(username, sessionID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"jti": sessionID,
		"exp": time.Now().Add(time.Hour * 72).Unix(),
		"iat": time.Now().Unix(),
	})
	t, err := token.SignedString([]byte(JWTSecret))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", username, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, token string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

// NewRedisKV returns a store backed by an in-process redis that is shut down
// with the test.
func NewRedisKV(t *testing.T) (*services.RedisKeyValueStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return services.NewRedisKeyValueStore(client), mr
}

var ErrInjected = errors.New("injected storage failure")

// FlakyKV wraps a store and fails reads or writes on demand.
type FlakyKV struct {
	services.KeyValueStore

	mu            sync.Mutex
	failGet       bool
	failSet       bool
	failSetPrefix string
	setCalls      int
}

func NewFlakyKV(inner services.KeyValueStore) *FlakyKV {
	return &FlakyKV{KeyValueStore: inner}
}

func (f *FlakyKV) FailGets(fail bool) {
	f.mu.Lock()
	f.failGet = fail
	f.mu.Unlock()
}

func (f *FlakyKV) FailSets(fail bool) {
	f.mu.Lock()
	f.failSet = fail
	f.mu.Unlock()
}

// FailSetsWithPrefix fails writes to keys starting with prefix. An empty
// prefix turns it off.
func (f *FlakyKV) FailSetsWithPrefix(prefix string) {
	f.mu.Lock()
	f.failSetPrefix = prefix
	f.mu.Unlock()
}

func (f *FlakyKV) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.KeyValueStore.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet || (f.failSetPrefix != "" && strings.HasPrefix(key, f.failSetPrefix))
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

// SamplePNG encodes a small solid image.
func SamplePNG(width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatalf("encode sample png: %s", err)
	}
	return buf.Bytes()
}

func SampleImage() services.InlineImage {
	return services.InlineImage{MIMEType: "image/png", Data: SamplePNG(4, 4, color.RGBA{R: 200, A: 255})}
}

func SampleImageDataURL() string {
	return SampleImage().DataURL()
}

const ClassificationJSON = `{"name":"白色T恤","category":"TOP","season":"SUMMER","color":"白色","description":"纯棉短袖"}`

const OutfitJSON = `{"outfitName":"清爽通勤","items":["item-1","item-2"],"reasoning":"颜色协调，适合晴天上班。"}`

// StylistLLMMock records calls and returns canned answers.
type StylistLLMMock struct {
	mu sync.Mutex

	ClassificationResponse string
	ClassificationErr      error
	SuggestionResponse     string
	SuggestionErr          error
	RenderedImages         []services.InlineImage
	RenderErr              error

	ClassifyCalls   int
	SuggestCalls    int
	RenderCalls     int
	LastPrompt      string
	LastRenderInput []services.InlineImage
}

func NewStylistLLMMock() *StylistLLMMock {
	return &StylistLLMMock{
		ClassificationResponse: ClassificationJSON,
		SuggestionResponse:     OutfitJSON,
		RenderedImages:         []services.InlineImage{SampleImage()},
	}
}

func (m *StylistLLMMock) ClassifyClothing(ctx context.Context, img services.InlineImage) (*services.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassifyCalls++
	if m.ClassificationErr != nil {
		return nil, m.ClassificationErr
	}
	return &services.LLMResponse{Response: m.ClassificationResponse, InputTokenCount: 10, OutputTokenCount: 20, TotalTokenCount: 30}, nil
}

func (m *StylistLLMMock) SuggestOutfit(ctx context.Context, prompt string) (*services.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuggestCalls++
	m.LastPrompt = prompt
	if m.SuggestionErr != nil {
		return nil, m.SuggestionErr
	}
	return &services.LLMResponse{Response: m.SuggestionResponse, InputTokenCount: 10, OutputTokenCount: 20, TotalTokenCount: 30}, nil
}

func (m *StylistLLMMock) GenerateOutfitImage(ctx context.Context, images []services.InlineImage, instruction string) (*services.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RenderCalls++
	m.LastRenderInput = images
	if m.RenderErr != nil {
		return nil, m.RenderErr
	}
	return &services.LLMResponse{Images: m.RenderedImages}, nil
}

func (m *StylistLLMMock) Calls() (classify, suggest, render int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClassifyCalls, m.SuggestCalls, m.RenderCalls
}

type AWSProviderMock struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (a *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (a *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	return fmt.Sprintf("https://fakebucketurl.com/%s/%s", bucketName, fileName), nil
}

func (a *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return fmt.Sprintf("https://fakebucketurl.com/%s/%s?signed=1", bucketName, fileKey), nil
}

func (a *AWSProviderMock) UploadToPresignedURL(ctx context.Context, url string, fileContent []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Objects == nil {
		a.Objects = map[string][]byte{}
	}
	a.Objects[url] = fileContent
	return http.StatusOK, nil
}

// URLCacheMock serves read URLs from an optional httptest server.
type URLCacheMock struct {
	BaseURL string
}

func (u URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.BaseURL, "/"), objectKey), nil
}

// CountingImageStore wraps an ImageStore and counts saves.
type CountingImageStore struct {
	services.ImageStore

	mu    sync.Mutex
	saves int
}

func (s *CountingImageStore) Save(ctx context.Context, key string, img services.InlineImage) (string, error) {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.ImageStore.Save(ctx, key, img)
}

func (s *CountingImageStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func NopLogger() *zap.Logger {
	return zap.NewNop()
}
