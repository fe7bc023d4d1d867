package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDraftDefaultsToCapturing(t *testing.T) {
	kv, _ := test.NewRedisKV(t)
	workflows := services.NewWorkflowStore(kv, time.Minute)

	draft, err := workflows.LoadDraft(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.NewCreationDraft(), draft)

	session, err := workflows.LoadStylist(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StylistIdle, session.State)
}

func TestUpdateDraftPersistsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	kv, _ := test.NewRedisKV(t)
	workflows := services.NewWorkflowStore(kv, time.Minute)

	_, err := workflows.UpdateDraft(ctx, "alice", func(d *models.CreationDraft) error {
		return services.BeginAnalysis(d, "ref", "a1", time.Now())
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = workflows.UpdateDraft(ctx, "alice", func(d *models.CreationDraft) error {
		d.ImageURL = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	draft, err := workflows.LoadDraft(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.DraftAnalyzing, draft.State)
	assert.Equal(t, "ref", draft.ImageURL)
	assert.Equal(t, "a1", draft.AttemptID)
}

func TestStaleAnalysisIsReleased(t *testing.T) {
	ctx := context.Background()
	kv, _ := test.NewRedisKV(t)
	workflows := services.NewWorkflowStore(kv, 10*time.Minute)
	started := time.UnixMilli(1700000000000)
	workflows.Now = func() time.Time { return started.Add(5 * time.Minute) }

	_, err := workflows.UpdateDraft(ctx, "alice", func(d *models.CreationDraft) error {
		return services.BeginAnalysis(d, "ref", "a1", started)
	})
	require.NoError(t, err)

	draft, err := workflows.LoadDraft(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.DraftAnalyzing, draft.State)

	workflows.Now = func() time.Time { return started.Add(11 * time.Minute) }
	draft, err = workflows.LoadDraft(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.DraftDrafting, draft.State)
	assert.Equal(t, services.NoticeClassificationFailed, draft.Notice)
	assert.Equal(t, "ref", draft.ImageURL)
}

func TestStaleStylistIsReleased(t *testing.T) {
	ctx := context.Background()
	kv, _ := test.NewRedisKV(t)
	workflows := services.NewWorkflowStore(kv, time.Minute)
	started := time.UnixMilli(1700000000000)
	workflows.Now = func() time.Time { return started.Add(2 * time.Minute) }

	_, err := workflows.UpdateStylist(ctx, "alice", func(s *models.StylingSession) error {
		s.Suggestion = &sampleSuggestion
		return services.BeginVisualization(s, "v1", started)
	})
	require.NoError(t, err)

	session, err := workflows.LoadStylist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StylistIdle, session.State)
	assert.Equal(t, services.NoticeVisualizationFailed, session.Notice)
	assert.Equal(t, &sampleSuggestion, session.Suggestion)

	_, err = workflows.UpdateStylist(ctx, "alice", func(s *models.StylingSession) error {
		return services.BeginRecommendation(s, "a", "b", "r1", started)
	})
	require.NoError(t, err)
	session, err = workflows.LoadStylist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StylistIdle, session.State)
	assert.Equal(t, services.NoticeRecommendationFailed, session.Notice)
}

func TestStaleRecoveryDisabled(t *testing.T) {
	ctx := context.Background()
	kv, _ := test.NewRedisKV(t)
	workflows := services.NewWorkflowStore(kv, 0)

	_, err := workflows.UpdateDraft(ctx, "alice", func(d *models.CreationDraft) error {
		return services.BeginAnalysis(d, "ref", "a1", time.Unix(0, 0).Add(time.Hour))
	})
	require.NoError(t, err)

	draft, err := workflows.LoadDraft(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.DraftAnalyzing, draft.State)
}
