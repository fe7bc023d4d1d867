package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeClassifyClothing = "wardrobe:classify"
	TypeRecommendOutfit  = "wardrobe:recommend"
	TypeVisualizeOutfit  = "wardrobe:visualize"

	QueueName = "generate"
)

// WorkflowPayload identifies the workflow attempt a task belongs to.
type WorkflowPayload struct {
	Username  string `json:"username"`
	AttemptID string `json:"attempt_id"`
}

func newWorkflowTask(taskType, username, attemptID string) (*asynq.Task, error) {
	payload, err := json.Marshal(WorkflowPayload{Username: username, AttemptID: attemptID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, payload), nil
}

func NewClassifyClothingTask(username, attemptID string) (*asynq.Task, error) {
	return newWorkflowTask(TypeClassifyClothing, username, attemptID)
}

func NewRecommendOutfitTask(username, attemptID string) (*asynq.Task, error) {
	return newWorkflowTask(TypeRecommendOutfit, username, attemptID)
}

func NewVisualizeOutfitTask(username, attemptID string) (*asynq.Task, error) {
	return newWorkflowTask(TypeVisualizeOutfit, username, attemptID)
}

func parsePayload(t *asynq.Task) (WorkflowPayload, error) {
	var payload WorkflowPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.Username == "" || payload.AttemptID == "" {
		return payload, fmt.Errorf("incomplete %s payload: %w", t.Type(), asynq.SkipRetry)
	}
	return payload, nil
}

// Processor holds what the task handlers need.
type Processor struct {
	KV         services.KeyValueStore
	Workflows  *services.WorkflowStore
	Images     services.ImageStore
	Classifier *services.Classifier
	Engine     *services.RecommendationEngine
	Visualizer *services.Visualizer
	Logger     *zap.Logger
}

func NewProcessor(kv services.KeyValueStore, workflows *services.WorkflowStore, images services.ImageStore, llm services.StylistLLM, imageMaxSide int, metrics *services.Metrics, logger *zap.Logger) *Processor {
	return &Processor{
		KV:         kv,
		Workflows:  workflows,
		Images:     images,
		Classifier: &services.Classifier{LLM: llm, ImageMaxSide: imageMaxSide, Metrics: metrics},
		Engine:     &services.RecommendationEngine{LLM: llm, Metrics: metrics},
		Visualizer: &services.Visualizer{LLM: llm, ImageMaxSide: imageMaxSide, Metrics: metrics},
		Logger:     logger,
	}
}

func NewServeMux(p *Processor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeClassifyClothing, func(ctx context.Context, t *asynq.Task) error {
		return HandleClassifyClothingTask(ctx, t, p)
	})
	mux.HandleFunc(TypeRecommendOutfit, func(ctx context.Context, t *asynq.Task) error {
		return HandleRecommendOutfitTask(ctx, t, p)
	})
	mux.HandleFunc(TypeVisualizeOutfit, func(ctx context.Context, t *asynq.Task) error {
		return HandleVisualizeOutfitTask(ctx, t, p)
	})
	return mux
}

// errSuperseded aborts an update whose attempt is no longer current.
var errSuperseded = errors.New("attempt superseded")

func saveOutcome(logger *zap.Logger, err error) error {
	if err == nil || errors.Is(err, errSuperseded) {
		if err != nil {
			logger.Info("result discarded, attempt superseded")
		}
		return nil
	}
	sentry.CaptureException(err)
	logger.Error("failed to save workflow result", zap.Error(err))
	return err
}

func HandleClassifyClothingTask(ctx context.Context, t *asynq.Task, p *Processor) error {
	payload, err := parsePayload(t)
	if err != nil {
		return err
	}
	logger := p.Logger.With(zap.String("tag", fmt.Sprintf("[Draft: %s]", payload.Username)), zap.String("attempt", payload.AttemptID))

	draft, err := p.Workflows.LoadDraft(ctx, payload.Username)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	if draft.State != models.DraftAnalyzing || draft.AttemptID != payload.AttemptID {
		logger.Info("draft moved on, skipping classification", zap.String("state", string(draft.State)))
		return nil
	}

	image, err := p.Images.Load(ctx, draft.ImageURL)
	var result services.ClassificationResult
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Draft: %s] load image: %w", payload.Username, err))
		err = fmt.Errorf("%w: %w", services.ErrClassificationFailed, err)
	} else {
		result, err = p.Classifier.Classify(ctx, image)
	}
	if err != nil {
		logger.Warn("classification failed", zap.Error(err))
	}

	_, saveErr := p.Workflows.UpdateDraft(ctx, payload.Username, func(d *models.CreationDraft) error {
		var applied bool
		if err != nil {
			applied = services.FailAnalysis(d, payload.AttemptID)
		} else {
			applied = services.CompleteAnalysis(d, payload.AttemptID, result)
		}
		if !applied {
			return errSuperseded
		}
		return nil
	})
	return saveOutcome(logger, saveErr)
}

func HandleRecommendOutfitTask(ctx context.Context, t *asynq.Task, p *Processor) error {
	payload, err := parsePayload(t)
	if err != nil {
		return err
	}
	logger := p.Logger.With(zap.String("tag", fmt.Sprintf("[Stylist: %s]", payload.Username)), zap.String("attempt", payload.AttemptID))

	session, err := p.Workflows.LoadStylist(ctx, payload.Username)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	if session.State != models.StylistRecommending || session.AttemptID != payload.AttemptID {
		logger.Info("styling session moved on, skipping recommendation")
		return nil
	}

	var suggestion models.OutfitSuggestion
	store, err := services.NewItemStore(ctx, p.KV, payload.Username)
	if err != nil {
		sentry.CaptureException(err)
		err = fmt.Errorf("%w: %w", services.ErrRecommendationFailed, err)
	} else {
		suggestion, err = p.Engine.Recommend(ctx, store.List(), session.Occasion, session.Weather)
	}
	if err != nil {
		logger.Warn("recommendation failed", zap.Error(err))
	} else {
		logger.Info("outfit suggested", zap.String("outfit", suggestion.OutfitName), zap.Int("items", len(suggestion.Items)))
	}

	_, saveErr := p.Workflows.UpdateStylist(ctx, payload.Username, func(s *models.StylingSession) error {
		var applied bool
		if err != nil {
			applied = services.FailRecommendation(s, payload.AttemptID)
		} else {
			applied = services.CompleteRecommendation(s, payload.AttemptID, suggestion)
		}
		if !applied {
			return errSuperseded
		}
		return nil
	})
	return saveOutcome(logger, saveErr)
}

func (p *Processor) renderOutfit(ctx context.Context, username, attemptID string, suggestion *models.OutfitSuggestion) (string, error) {
	store, err := services.NewItemStore(ctx, p.KV, username)
	if err != nil {
		sentry.CaptureException(err)
		return "", err
	}
	selected := services.SelectSuggestedItems(store.List(), suggestion)
	if len(selected) == 0 {
		return "", services.ErrNothingToVisualize
	}
	images := make([]services.InlineImage, 0, len(selected))
	for _, item := range selected {
		image, err := p.Images.Load(ctx, item.ImageURL)
		if err != nil {
			sentry.CaptureException(fmt.Errorf("[Stylist: %s] load image of %s: %w", username, item.ID, err))
			return "", err
		}
		images = append(images, image)
	}
	rendered, err := p.Visualizer.Visualize(ctx, images)
	if err != nil {
		return "", err
	}
	ref, err := p.Images.Save(ctx, services.ObjectKey("outfits", username, attemptID), rendered)
	if err != nil {
		sentry.CaptureException(err)
		return "", err
	}
	return ref, nil
}

func HandleVisualizeOutfitTask(ctx context.Context, t *asynq.Task, p *Processor) error {
	payload, err := parsePayload(t)
	if err != nil {
		return err
	}
	logger := p.Logger.With(zap.String("tag", fmt.Sprintf("[Stylist: %s]", payload.Username)), zap.String("attempt", payload.AttemptID))

	session, err := p.Workflows.LoadStylist(ctx, payload.Username)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	if session.State != models.StylistVisualizing || session.AttemptID != payload.AttemptID {
		logger.Info("styling session moved on, skipping visualization")
		return nil
	}

	ref, err := p.renderOutfit(ctx, payload.Username, payload.AttemptID, session.Suggestion)
	if err != nil {
		logger.Warn("visualization failed", zap.Error(err))
	}

	_, saveErr := p.Workflows.UpdateStylist(ctx, payload.Username, func(s *models.StylingSession) error {
		var applied bool
		if err != nil {
			applied = services.FailVisualization(s, payload.AttemptID)
		} else {
			applied = services.CompleteVisualization(s, payload.AttemptID, ref)
		}
		if !applied {
			return errSuperseded
		}
		return nil
	})
	return saveOutcome(logger, saveErr)
}
