package controllers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func GenerateUserToken(username, sessionID, secret string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 72 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ID:        sessionID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString([]byte(secret))
}

type ClothingItemResponse struct {
	ID            string `json:"id"`
	ImageURL      string `json:"imageUrl"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	CategoryLabel string `json:"categoryLabel"`
	Season        string `json:"season"`
	SeasonLabel   string `json:"seasonLabel"`
	Color         string `json:"color"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	CreatedAt     int64  `json:"createdAt"`
}

func toItemResponse(item models.ClothingItem) ClothingItemResponse {
	return ClothingItemResponse{
		ID:            item.ID,
		ImageURL:      item.ImageURL,
		Name:          item.Name,
		Category:      string(item.Category),
		CategoryLabel: item.Category.Label(),
		Season:        string(item.Season),
		SeasonLabel:   item.Season.Label(),
		Color:         item.Color,
		Location:      item.Location,
		Description:   item.Description,
		CreatedAt:     item.CreatedAt,
	}
}

// populateDisplayImages resolves image refs to URLs a client can load.
// Items whose ref cannot be resolved keep an empty imageUrl.
func populateDisplayImages(ctx context.Context, images services.ImageStore, logger *zap.Logger, items []models.ClothingItem) []ClothingItemResponse {
	var wg sync.WaitGroup
	responses := make([]ClothingItemResponse, len(items))
	for i, item := range items {
		wg.Add(1)
		go func(index int, item models.ClothingItem) {
			defer wg.Done()
			response := toItemResponse(item)
			url, err := images.DisplayURL(ctx, item.ImageURL)
			if err != nil {
				logger.Warn("failed to resolve image url", zap.String("item", item.ID), zap.Error(err))
				url = ""
			}
			response.ImageURL = url
			responses[index] = response
		}(i, item)
	}
	wg.Wait()
	return responses
}

func displayURL(ctx context.Context, images services.ImageStore, logger *zap.Logger, ref string) string {
	if ref == "" {
		return ""
	}
	url, err := images.DisplayURL(ctx, ref)
	if err != nil {
		logger.Warn("failed to resolve image url", zap.Error(err))
		return ""
	}
	return url
}

// respondWorkflowError maps workflow and store errors to responses.
func respondWorkflowError(c echo.Context, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrWorkflowBusy):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidWorkflowState), errors.Is(err, services.ErrNoSuggestion), errors.Is(err, services.ErrNothingToVisualize):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrImageRequired), errors.Is(err, services.ErrInvalidImage), errors.Is(err, services.ErrImageTooLarge):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	sentry.CaptureException(err)
	logger.Error("workflow request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong, please try again"})
}

type labeledOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OptionsResponse struct {
	Categories []labeledOption `json:"categories"`
	Seasons    []labeledOption `json:"seasons"`
	Locations  []string        `json:"locations"`
	Weather    []string        `json:"weather"`
	Occasions  []string        `json:"occasions"`
}

// Options lists the enumerations and presets a client offers in its forms.
func Options(c echo.Context) error {
	response := OptionsResponse{
		Categories: []labeledOption{{Value: models.CategoryFilterAll, Label: models.CategoryFilterAllLabel}},
		Locations:  models.SuggestedLocations,
		Weather:    models.WeatherPresets,
		Occasions:  models.OccasionPresets,
	}
	for _, category := range models.Categories {
		response.Categories = append(response.Categories, labeledOption{Value: string(category), Label: category.Label()})
	}
	for _, season := range models.Seasons {
		response.Seasons = append(response.Seasons, labeledOption{Value: string(season), Label: season.Label()})
	}
	return c.JSON(http.StatusOK, response)
}
