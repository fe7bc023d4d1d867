package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wardrobeapi/models"
)

// ClassificationResult holds the validated attributes read from a photo.
// Empty fields were not reported and must not overwrite user input.
type ClassificationResult struct {
	Name        string          `json:"name"`
	Category    models.Category `json:"category,omitempty"`
	Season      models.Season   `json:"season,omitempty"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
}

type classificationPayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Season      string `json:"season"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func malformed(parent error, detail string) error {
	return fmt.Errorf("%w: %w: %s", parent, ErrMalformedResponse, detail)
}

func cleanAIResponseText(text string) string {
	cleanContent := strings.TrimSpace(text)
	cleanContent = strings.TrimPrefix(cleanContent, "```json")
	cleanContent = strings.TrimPrefix(cleanContent, "```")
	cleanContent = strings.TrimSuffix(cleanContent, "```")
	return strings.TrimSpace(cleanContent)
}

// ParseClassification validates raw model output. Category and season
// outside their enumerations make the whole result malformed.
func ParseClassification(text string) (ClassificationResult, error) {
	var payload classificationPayload
	if err := json.Unmarshal([]byte(cleanAIResponseText(text)), &payload); err != nil {
		return ClassificationResult{}, malformed(ErrClassificationFailed, err.Error())
	}
	result := ClassificationResult{
		Name:        strings.TrimSpace(payload.Name),
		Color:       strings.TrimSpace(payload.Color),
		Description: strings.TrimSpace(payload.Description),
	}
	if payload.Category != "" {
		category, err := models.ParseCategory(payload.Category)
		if err != nil {
			return ClassificationResult{}, malformed(ErrClassificationFailed, err.Error())
		}
		result.Category = category
	}
	if payload.Season != "" {
		season, err := models.ParseSeason(payload.Season)
		if err != nil {
			return ClassificationResult{}, malformed(ErrClassificationFailed, err.Error())
		}
		result.Season = season
	}
	return result, nil
}

// Classifier turns a garment photo into suggested attributes.
type Classifier struct {
	LLM          StylistLLM
	ImageMaxSide int
	Metrics      *Metrics
}

func (c *Classifier) Classify(ctx context.Context, image InlineImage) (result ClassificationResult, err error) {
	defer func() { c.Metrics.CapabilityCall("classify", err) }()

	prepared, err := PrepareImageForLLM(image, c.ImageMaxSide)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	response, err := c.LLM.ClassifyClothing(ctx, prepared)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	return ParseClassification(response.Response)
}
