package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// LLMModelName is a Gemini model known to work for a capability.
type LLMModelName int32

const (
	Flash25 LLMModelName = iota
	Flash25Image
)

func (t LLMModelName) String() string {
	switch t {
	case Flash25Image:
		return "gemini-2.5-flash-image"
	default:
		return "gemini-2.5-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

type LLMResponse struct {
	Response           string        `json:"response"`
	Images             []InlineImage `json:"-"`
	InputTokenCount    int32         `json:"input_token_count"`
	Thoughts           string        `json:"thoughts"`
	ThoughtsTokenCount int32         `json:"thoughts_token_count"`
	OutputTokenCount   int32         `json:"output_token_count"`
	TotalTokenCount    int32         `json:"total_token_count"`
}

// StylistLLM is the generative backend. Implementations return the raw
// model output; callers validate it.
type StylistLLM interface {
	ClassifyClothing(ctx context.Context, image InlineImage) (*LLMResponse, error)
	SuggestOutfit(ctx context.Context, prompt string) (*LLMResponse, error)
	GenerateOutfitImage(ctx context.Context, images []InlineImage, instruction string) (*LLMResponse, error)
}

const classificationPrompt = "分析这件衣物。识别类别、适用季节、颜色，并提供简短的中文名称和描述。请严格返回有效的 JSON 格式。"

type GoogleStylistLLM struct {
	Client              *genai.Client
	ClassificationModel string
	RecommendationModel string
	VisualizationModel  string
	Logger              *zap.Logger
}

func NewGoogleStylistLLM(ctx context.Context, apiKey string, logger *zap.Logger) (*GoogleStylistLLM, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GoogleStylistLLM{
		Client:              client,
		ClassificationModel: Flash25.String(),
		RecommendationModel: Flash25.String(),
		VisualizationModel:  Flash25Image.String(),
		Logger:              logger,
	}, nil
}

func enumSchema(description string, values []string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Enum: values, Description: description}
}

func (g *GoogleStylistLLM) ClassifyClothing(ctx context.Context, image InlineImage) (*LLMResponse, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}},
		{Text: classificationPrompt},
	}
	return g.generate(ctx, g.ClassificationModel, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      floatPointer(0.2),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name": {Type: genai.TypeString, Description: "简短的中文名称"},
				"category": enumSchema(
					"TOP=上装 BOTTOM=下装 SHOES=鞋履 OUTERWEAR=外套 ACCESSORY=配饰 DRESS=连衣裙 OTHER=其他",
					[]string{"TOP", "BOTTOM", "SHOES", "OUTERWEAR", "ACCESSORY", "DRESS", "OTHER"},
				),
				"season": enumSchema(
					"SUMMER=夏季 WINTER=冬季 SPRING_AUTUMN=春秋 ALL_SEASON=四季通用",
					[]string{"SUMMER", "WINTER", "SPRING_AUTUMN", "ALL_SEASON"},
				),
				"color":       {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"name", "category", "season", "color", "description"},
		},
	})
}

func (g *GoogleStylistLLM) SuggestOutfit(ctx context.Context, prompt string) (*LLMResponse, error) {
	return g.generate(ctx, g.RecommendationModel, []*genai.Part{{Text: prompt}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      floatPointer(0.7),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"outfitName": {Type: genai.TypeString},
				"items": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "所选衣物的 ID",
				},
				"reasoning": {Type: genai.TypeString},
			},
			Required: []string{"outfitName", "items", "reasoning"},
		},
	})
}

func (g *GoogleStylistLLM) GenerateOutfitImage(ctx context.Context, images []InlineImage, instruction string) (*LLMResponse, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, image := range images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}})
	}
	parts = append(parts, &genai.Part{Text: instruction})
	return g.generate(ctx, g.VisualizationModel, parts, &genai.GenerateContentConfig{CandidateCount: 1})
}

func (g *GoogleStylistLLM) generate(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*LLMResponse, error) {
	result, err := g.Client.Models.GenerateContent(ctx, model, []*genai.Content{{Role: "user", Parts: parts}}, config)
	if err != nil {
		return nil, fmt.Errorf("generate content with %s: %w", model, err)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("content violation: %s %s", result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}

	images, err := GetAllInlineImages(result)
	if err != nil {
		return nil, err
	}
	text, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		return nil, err
	}
	response := &LLMResponse{
		Response: text.Text,
		Images:   images,
		Thoughts: text.Thoughts,
	}
	if usage := result.UsageMetadata; usage != nil {
		response.InputTokenCount = usage.PromptTokenCount
		response.ThoughtsTokenCount = usage.ThoughtsTokenCount
		response.OutputTokenCount = usage.CandidatesTokenCount
		response.TotalTokenCount = usage.TotalTokenCount
	}
	g.Logger.Debug("gemini call finished",
		zap.String("model", model),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("images", len(images)),
		zap.Int32("total_tokens", response.TotalTokenCount),
	)
	return response, nil
}

// GetAllInlineImages collects image parts from every candidate in order.
func GetAllInlineImages(result *genai.GenerateContentResponse) ([]InlineImage, error) {
	if result == nil {
		return nil, fmt.Errorf("empty response")
	}
	var images []InlineImage
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			inlineData := part.InlineData
			if inlineData != nil && strings.HasPrefix(inlineData.MIMEType, "image/") && len(inlineData.Data) > 0 {
				images = append(images, InlineImage{MIMEType: inlineData.MIMEType, Data: inlineData.Data})
			}
		}
	}
	return images, nil
}

type ResponseWithThoughts struct {
	Thoughts string `json:"thoughts"`
	Text     string `json:"text"`
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	var text strings.Builder
	for _, c := range result.Candidates {
		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content violation: blocked for %s", rating.Category)
			}
		}
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.Thought {
				thinkingContent = part.Text
				continue
			}
			text.WriteString(part.Text)
		}
		break
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     text.String(),
	}, nil
}
