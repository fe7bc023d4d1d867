package services_test

import (
	"context"
	"errors"
	"testing"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	result, err := services.ParseClassification(test.ClassificationJSON)
	require.NoError(t, err)
	assert.Equal(t, services.ClassificationResult{
		Name:        "白色T恤",
		Category:    models.CategoryTop,
		Season:      models.SeasonSummer,
		Color:       "白色",
		Description: "纯棉短袖",
	}, result)
}

func TestParseClassificationAcceptsLabelsAndPartialResults(t *testing.T) {
	result, err := services.ParseClassification("```json\n{\"category\":\"连衣裙\",\"season\":\"spring_autumn\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryDress, result.Category)
	assert.Equal(t, models.SeasonSpringAutumn, result.Season)
	assert.Empty(t, result.Name)
}

func TestParseClassificationRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{
		`{"category":"HAT"}`,
		`{"season":"MONSOON"}`,
		`[1,2]`,
		``,
	} {
		_, err := services.ParseClassification(raw)
		assert.ErrorIs(t, err, services.ErrClassificationFailed, raw)
		assert.ErrorIs(t, err, services.ErrMalformedResponse, raw)
	}
}

func TestClassify(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)
	llm := test.NewStylistLLMMock()
	classifier := &services.Classifier{LLM: llm, ImageMaxSide: 1024, Metrics: metrics}

	result, err := classifier.Classify(context.Background(), test.SampleImage())
	require.NoError(t, err)
	assert.Equal(t, "白色T恤", result.Name)

	llm.ClassificationErr = errors.New("backend down")
	_, err = classifier.Classify(context.Background(), test.SampleImage())
	assert.ErrorIs(t, err, services.ErrClassificationFailed)

	count, err := testutil.GatherAndCount(registry, "wardrobe_capability_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
