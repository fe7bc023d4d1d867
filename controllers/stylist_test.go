package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendPreconditions(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1")

	rec := h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), services.NoticeInventoryTooSmall)

	h.seedItems(t, "alice", "item-2")
	rec = h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), services.NoticeMissingConditions)

	_, suggest, _ := h.llm.Calls()
	assert.Zero(t, suggest)
}

func TestRecommendAndVisualize(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1", "item-2", "item-3")

	rec := h.do(http.MethodGet, "/stylist", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", decode[StylistResponse](t, rec).State)

	rec = h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[StylistResponse](t, rec)
	assert.Equal(t, "idle", session.State)
	require.NotNil(t, session.Suggestion)
	assert.Equal(t, "清爽通勤", session.Suggestion.OutfitName)
	require.Len(t, session.SelectedItems, 2)
	assert.Equal(t, "item-2", session.SelectedItems[0].ID)
	assert.Equal(t, "item-1", session.SelectedItems[1].ID)
	assert.Empty(t, session.VisualizationURL)

	rec = h.do(http.MethodPost, "/stylist/visualize", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session = decode[StylistResponse](t, rec)
	assert.Equal(t, test.SampleImageDataURL(), session.VisualizationURL)
	require.NotNil(t, session.Suggestion)
	assert.Len(t, h.llm.LastRenderInput, 2)

	rec = h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "派对聚会", Weather: "寒冷冬季"})
	require.Equal(t, http.StatusOK, rec.Code)
	session = decode[StylistResponse](t, rec)
	assert.Empty(t, session.VisualizationURL, "a new suggestion drops the old rendering")
	assert.Equal(t, "派对聚会", session.Occasion)

	rec = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wardrobe_capability_calls_total{capability="recommend",outcome="ok"} 2`)
	assert.Contains(t, rec.Body.String(), `wardrobe_capability_calls_total{capability="visualize",outcome="ok"} 1`)
}

func TestRecommendFailureShowsNotice(t *testing.T) {
	h := newHarness(t)
	h.llm.SuggestionResponse = `{"outfitName":"只有名字"}`
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1", "item-2")

	rec := h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[StylistResponse](t, rec)
	assert.Nil(t, session.Suggestion)
	assert.Equal(t, services.NoticeRecommendationFailed, session.Notice)
	assert.Empty(t, session.SelectedItems)
}

func TestVisualizeFailureKeepsSuggestion(t *testing.T) {
	h := newHarness(t)
	h.llm.RenderErr = errors.New("no image")
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1", "item-2")

	rec := h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/stylist/visualize", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[StylistResponse](t, rec)
	assert.Equal(t, services.NoticeVisualizationFailed, session.Notice)
	require.NotNil(t, session.Suggestion)
	assert.Len(t, session.SelectedItems, 2)
}

func TestVisualizePreconditions(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1", "item-2")

	rec := h.do(http.MethodPost, "/stylist/visualize", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, id := range []string{"item-1", "item-2"} {
		rec = h.do(http.MethodDelete, "/wardrobe/items/"+id+"?confirm=true", token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec = h.do(http.MethodPost, "/stylist/visualize", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, _, renders := h.llm.Calls()
	assert.Zero(t, renders)
}

func TestStylistBusy(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice")
	h.seedItems(t, "alice", "item-1", "item-2")
	_, err := h.workflows.UpdateStylist(context.Background(), "alice", func(s *models.StylingSession) error {
		return services.BeginRecommendation(s, "a", "b", "pending", time.Now())
	})
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/stylist", token, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "recommending", decode[StylistResponse](t, rec).State)

	rec = h.do(http.MethodPost, "/stylist/recommend", token, RecommendIn{Occasion: "工作/办公", Weather: "晴朗炎热"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = h.do(http.MethodPost, "/stylist/visualize", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
