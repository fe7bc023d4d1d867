package services

import (
	"fmt"
	"strings"
	"time"

	"wardrobeapi/models"
)

// BeginAnalysis records a captured image and moves the draft into
// analysis under attemptID.
func BeginAnalysis(draft *models.CreationDraft, imageRef, attemptID string, now time.Time) error {
	if draft.State == models.DraftAnalyzing {
		return ErrWorkflowBusy
	}
	if imageRef == "" {
		return ErrImageRequired
	}
	draft.State = models.DraftAnalyzing
	draft.ImageURL = imageRef
	draft.AttemptID = attemptID
	draft.Notice = ""
	draft.StartedAt = now.UnixMilli()
	return nil
}

func analysisCurrent(draft *models.CreationDraft, attemptID string) bool {
	return draft.State == models.DraftAnalyzing && draft.AttemptID == attemptID
}

// CompleteAnalysis merges the reported attributes into the form. It
// returns false when attemptID is no longer the running analysis.
func CompleteAnalysis(draft *models.CreationDraft, attemptID string, result ClassificationResult) bool {
	if !analysisCurrent(draft, attemptID) {
		return false
	}
	if result.Name != "" {
		draft.Fields.Name = result.Name
	}
	if result.Category.Valid() {
		draft.Fields.Category = result.Category
	}
	if result.Season.Valid() {
		draft.Fields.Season = result.Season
	}
	if result.Color != "" {
		draft.Fields.Color = result.Color
	}
	if result.Description != "" {
		draft.Fields.Description = result.Description
	}
	draft.State = models.DraftDrafting
	draft.StartedAt = 0
	return true
}

// FailAnalysis leaves the form as it was and surfaces the notice.
func FailAnalysis(draft *models.CreationDraft, attemptID string) bool {
	if !analysisCurrent(draft, attemptID) {
		return false
	}
	draft.State = models.DraftDrafting
	draft.Notice = NoticeClassificationFailed
	draft.StartedAt = 0
	return true
}

func UpdateDraftFields(draft *models.CreationDraft, fields models.DraftFields) error {
	switch draft.State {
	case models.DraftAnalyzing:
		return ErrWorkflowBusy
	case models.DraftCapturing:
		return fmt.Errorf("%w: capture an image first", ErrInvalidWorkflowState)
	}
	draft.Fields = fields
	draft.Notice = ""
	return nil
}

// ResetDraft discards the image and form, back to capturing.
func ResetDraft(draft *models.CreationDraft) error {
	if draft.State == models.DraftAnalyzing {
		return ErrWorkflowBusy
	}
	*draft = *models.NewCreationDraft()
	return nil
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// BuildClothingItem turns a finished draft into a new item, filling blank
// fields with their defaults.
func BuildClothingItem(draft *models.CreationDraft, id string, now time.Time) (models.ClothingItem, error) {
	if draft.State == models.DraftAnalyzing {
		return models.ClothingItem{}, ErrWorkflowBusy
	}
	if draft.ImageURL == "" {
		return models.ClothingItem{}, ErrImageRequired
	}
	category := draft.Fields.Category
	if !category.Valid() {
		category = models.CategoryTop
	}
	season := draft.Fields.Season
	if !season.Valid() {
		season = models.SeasonAllSeason
	}
	return models.ClothingItem{
		ID:          id,
		ImageURL:    draft.ImageURL,
		Name:        valueOr(draft.Fields.Name, models.DefaultItemName),
		Category:    category,
		Season:      season,
		Color:       valueOr(draft.Fields.Color, models.DefaultItemColor),
		Location:    valueOr(draft.Fields.Location, models.DefaultItemLocation),
		Description: strings.TrimSpace(draft.Fields.Description),
		CreatedAt:   now.UnixMilli(),
	}, nil
}
