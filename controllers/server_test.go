package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"
	"wardrobeapi/test"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	e         *echo.Echo
	kv        services.KeyValueStore
	flaky     *test.FlakyKV
	images    *test.CountingImageStore
	workflows *services.WorkflowStore
	llm       *test.StylistLLMMock
}

func newHarness(t *testing.T) *harness {
	redisKV, _ := test.NewRedisKV(t)
	flaky := test.NewFlakyKV(redisKV)
	var kv services.KeyValueStore = flaky
	workflows := services.NewWorkflowStore(kv, 10*time.Minute)
	llm := test.NewStylistLLMMock()
	images := &test.CountingImageStore{ImageStore: services.InlineImageStore{}}
	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)
	processor := tasks.NewProcessor(kv, workflows, images, llm, 1024, metrics, test.NopLogger())

	e := SetupServer(Services{
		KV:         kv,
		Accounts:   services.NewAccountService(kv, bcrypt.MinCost),
		Workflows:  workflows,
		Images:     images,
		Dispatcher: &tasks.InlineDispatcher{Handler: tasks.NewServeMux(processor), Logger: test.NopLogger()},
		Metrics:    metrics,
		Gatherer:   registry,
		Logger:     test.NopLogger(),
		JWTSecret:  test.JWTSecret,
		JWTExpiry:  time.Hour,
	})
	return &harness{e: e, kv: kv, flaky: flaky, images: images, workflows: workflows, llm: llm}
}

func (h *harness) do(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if token == "" {
		req = test.NewJSONRequest(method, target, body)
	} else {
		req = test.NewJSONAuthRequest(method, target, token, body)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(t *testing.T, username string) string {
	rec := h.do(http.MethodPost, "/auth/register", "", models.RegisterIn{Username: username, Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out models.AuthOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func (h *harness) seedItems(t *testing.T, username string, ids ...string) {
	store, err := services.NewItemStore(context.Background(), h.kv, username)
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, store.Add(context.Background(), models.ClothingItem{
			ID:       id,
			ImageURL: test.SampleImageDataURL(),
			Name:     "衣物 " + id,
			Category: models.CategoryTop,
			Season:   models.SeasonAllSeason,
			Color:    "白色",
			Location: "鞋架",
		}))
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
