package controllers

import (
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RecommendIn struct {
	Occasion string `json:"occasion" validate:"max=100"`
	Weather  string `json:"weather" validate:"max=100"`
}

type StylistResponse struct {
	State            string                   `json:"state"`
	Occasion         string                   `json:"occasion,omitempty"`
	Weather          string                   `json:"weather,omitempty"`
	Suggestion       *models.OutfitSuggestion `json:"suggestion,omitempty"`
	SelectedItems    []ClothingItemResponse   `json:"selectedItems"`
	VisualizationURL string                   `json:"visualizationUrl,omitempty"`
	Notice           string                   `json:"notice,omitempty"`
}

type StylistController struct {
	Workflows  *services.WorkflowStore
	Images     services.ImageStore
	Dispatcher tasks.Dispatcher
	Logger     *zap.Logger
}

func (controller *StylistController) StylistRoutes(g *echo.Group) {
	g.GET("", controller.GetSession)
	g.POST("/recommend", controller.Recommend)
	g.POST("/visualize", controller.Visualize)
}

func (controller *StylistController) respondSession(c echo.Context, store *services.ItemStore, session *models.StylingSession) error {
	ctx := c.Request().Context()
	selected := services.SelectSuggestedItems(store.List(), session.Suggestion)
	status := http.StatusOK
	if session.State != models.StylistIdle {
		status = http.StatusAccepted
	}
	return c.JSON(status, StylistResponse{
		State:            string(session.State),
		Occasion:         session.Occasion,
		Weather:          session.Weather,
		Suggestion:       session.Suggestion,
		SelectedItems:    populateDisplayImages(ctx, controller.Images, controller.Logger, selected),
		VisualizationURL: displayURL(ctx, controller.Images, controller.Logger, session.VisualizationURL),
		Notice:           session.Notice,
	})
}

func (controller *StylistController) GetSession(c echo.Context) error {
	account, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	session, err := controller.Workflows.LoadStylist(c.Request().Context(), account.Username)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondSession(c, store, session)
}

// dispatch hands the task over and runs undo when that fails.
func (controller *StylistController) dispatch(c echo.Context, account models.Account, task *asynq.Task, undo func(*models.StylingSession) error) error {
	ctx := c.Request().Context()
	if err := controller.Dispatcher.Dispatch(ctx, task); err != nil {
		sentry.CaptureException(err)
		controller.Logger.Error("failed to dispatch stylist task", zap.String("username", account.Username), zap.String("type", task.Type()), zap.Error(err))
		controller.Workflows.UpdateStylist(ctx, account.Username, undo)
		return err
	}
	return nil
}

func (controller *StylistController) Recommend(c echo.Context) error {
	var req RecommendIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	account, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	if notice, ok := services.CheckRecommendationRequest(store.Len(), req.Occasion, req.Weather); !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": notice})
	}
	ctx := c.Request().Context()

	attemptID := uuid.NewString()
	_, err := controller.Workflows.UpdateStylist(ctx, account.Username, func(s *models.StylingSession) error {
		return services.BeginRecommendation(s, req.Occasion, req.Weather, attemptID, time.Now())
	})
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}

	task, err := tasks.NewRecommendOutfitTask(account.Username, attemptID)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	err = controller.dispatch(c, account, task, func(s *models.StylingSession) error {
		services.FailRecommendation(s, attemptID)
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Service is not available, please try again a bit later"})
	}

	session, err := controller.Workflows.LoadStylist(ctx, account.Username)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondSession(c, store, session)
}

func (controller *StylistController) Visualize(c echo.Context) error {
	account, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	ctx := c.Request().Context()

	current, err := controller.Workflows.LoadStylist(ctx, account.Username)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	if current.State != models.StylistIdle {
		return respondWorkflowError(c, controller.Logger, services.ErrWorkflowBusy)
	}
	if current.Suggestion == nil {
		return respondWorkflowError(c, controller.Logger, services.ErrNoSuggestion)
	}
	if len(services.SelectSuggestedItems(store.List(), current.Suggestion)) == 0 {
		return respondWorkflowError(c, controller.Logger, services.ErrNothingToVisualize)
	}

	attemptID := uuid.NewString()
	_, err = controller.Workflows.UpdateStylist(ctx, account.Username, func(s *models.StylingSession) error {
		return services.BeginVisualization(s, attemptID, time.Now())
	})
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}

	task, err := tasks.NewVisualizeOutfitTask(account.Username, attemptID)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	err = controller.dispatch(c, account, task, func(s *models.StylingSession) error {
		services.FailVisualization(s, attemptID)
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Service is not available, please try again a bit later"})
	}

	session, err := controller.Workflows.LoadStylist(ctx, account.Username)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondSession(c, store, session)
}
