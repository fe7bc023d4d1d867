package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wardrobeapi/models"
)

// MinItemsForRecommendation is the smallest inventory worth styling.
const MinItemsForRecommendation = 2

const recommendationPromptTemplate = `
你是一位专业的时尚造型师。
用户情境:
- 场合: %s
- 天气: %s

可用衣橱库存 (JSON):
%s

任务: 从可用库存中选择最佳搭配。
规则:
1. 选择上装和下装（或连衣裙），如果有鞋子也请选择。
2. 确保颜色协调和风格匹配。
3. 返回所选物品的确切 ID。
4. 请用中文回答。
`

// CheckRecommendationRequest applies the caller policy and returns the
// notice to show when the request should not be sent.
func CheckRecommendationRequest(inventorySize int, occasion, weather string) (string, bool) {
	if inventorySize < MinItemsForRecommendation {
		return NoticeInventoryTooSmall, false
	}
	if strings.TrimSpace(occasion) == "" || strings.TrimSpace(weather) == "" {
		return NoticeMissingConditions, false
	}
	return "", true
}

// BuildRecommendationPrompt embeds the inventory projection. Images are
// not part of the projection.
func BuildRecommendationPrompt(inventory []models.ClothingItem, occasion, weather string) (string, error) {
	projection := make([]models.ClothingItemProjection, 0, len(inventory))
	for _, item := range inventory {
		projection = append(projection, item.Projection())
	}
	summary, err := json.Marshal(projection)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(recommendationPromptTemplate, occasion, weather, summary), nil
}

type outfitPayload struct {
	OutfitName *string   `json:"outfitName"`
	Items      *[]string `json:"items"`
	Reasoning  *string   `json:"reasoning"`
}

// ParseOutfitSuggestion requires all three fields to be present with the
// right types.
func ParseOutfitSuggestion(text string) (models.OutfitSuggestion, error) {
	var payload outfitPayload
	if err := json.Unmarshal([]byte(cleanAIResponseText(text)), &payload); err != nil {
		return models.OutfitSuggestion{}, malformed(ErrRecommendationFailed, err.Error())
	}
	if payload.OutfitName == nil || payload.Items == nil || payload.Reasoning == nil {
		return models.OutfitSuggestion{}, malformed(ErrRecommendationFailed, "missing outfitName, items or reasoning")
	}
	return models.OutfitSuggestion{
		OutfitName: *payload.OutfitName,
		Items:      *payload.Items,
		Reasoning:  *payload.Reasoning,
	}, nil
}

// SelectSuggestedItems resolves suggestion ids against the live inventory.
// Unknown ids are dropped and inventory order is kept.
func SelectSuggestedItems(inventory []models.ClothingItem, suggestion *models.OutfitSuggestion) []models.ClothingItem {
	if suggestion == nil {
		return []models.ClothingItem{}
	}
	wanted := make(map[string]struct{}, len(suggestion.Items))
	for _, id := range suggestion.Items {
		wanted[id] = struct{}{}
	}
	selected := make([]models.ClothingItem, 0, len(suggestion.Items))
	for _, item := range inventory {
		if _, ok := wanted[item.ID]; ok {
			selected = append(selected, item)
		}
	}
	return selected
}

type RecommendationEngine struct {
	LLM     StylistLLM
	Metrics *Metrics
}

func (e *RecommendationEngine) Recommend(ctx context.Context, inventory []models.ClothingItem, occasion, weather string) (suggestion models.OutfitSuggestion, err error) {
	defer func() { e.Metrics.CapabilityCall("recommend", err) }()

	prompt, err := BuildRecommendationPrompt(inventory, occasion, weather)
	if err != nil {
		return models.OutfitSuggestion{}, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}
	response, err := e.LLM.SuggestOutfit(ctx, prompt)
	if err != nil {
		return models.OutfitSuggestion{}, fmt.Errorf("%w: %w", ErrRecommendationFailed, err)
	}
	return ParseOutfitSuggestion(response.Response)
}
