package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ListItemsIn struct {
	Category string `query:"category" validate:"omitempty,categoryfilter"`
	Query    string `query:"q" validate:"max=100"`
}

type ItemsListResponse struct {
	// Total is the unfiltered inventory size.
	Total int                    `json:"total"`
	Items []ClothingItemResponse `json:"items"`
}

type CaptureImageIn struct {
	Image string `json:"image" validate:"required"`
}

type DraftResponse struct {
	State     string             `json:"state"`
	AttemptID string             `json:"attemptId,omitempty"`
	ImageURL  string             `json:"imageUrl,omitempty"`
	Fields    models.DraftFields `json:"fields"`
	Notice    string             `json:"notice,omitempty"`
}

type ItemCreatedResponse struct {
	Item  ClothingItemResponse `json:"item"`
	Draft DraftResponse        `json:"draft"`
}

type ClothesController struct {
	Workflows  *services.WorkflowStore
	Images     services.ImageStore
	Dispatcher tasks.Dispatcher
	Logger     *zap.Logger
}

func (controller *ClothesController) ClothingRoutes(g *echo.Group) {
	g.GET("/options", Options)
	g.GET("/items", controller.ListItems)
	g.DELETE("/items/:id", controller.DeleteItem)
	g.GET("/draft", controller.GetDraft)
	g.POST("/draft/image", controller.CaptureImage)
	g.PUT("/draft", controller.UpdateDraft)
	g.POST("/draft/submit", controller.SubmitDraft)
	g.DELETE("/draft", controller.ResetDraft)
}

func (controller *ClothesController) ListItems(c echo.Context) error {
	var req ListItemsIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	_, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	inventory := store.List()
	filtered := services.FilterInventory(inventory, req.Category, req.Query)
	return c.JSON(http.StatusOK, ItemsListResponse{
		Total: len(inventory),
		Items: populateDisplayImages(c.Request().Context(), controller.Images, controller.Logger, filtered),
	})
}

func (controller *ClothesController) DeleteItem(c echo.Context) error {
	account, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	if c.QueryParam("confirm") != "true" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "确定要删除这件衣物吗？"})
	}
	id := c.Param("id")
	if err := store.Remove(c.Request().Context(), id); err != nil {
		sentry.CaptureException(err)
		controller.Logger.Error("failed to remove item", zap.String("username", account.Username), zap.String("item", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete item, please try again"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (controller *ClothesController) draftResponse(c echo.Context, draft *models.CreationDraft) DraftResponse {
	return DraftResponse{
		State:     string(draft.State),
		AttemptID: draft.AttemptID,
		ImageURL:  displayURL(c.Request().Context(), controller.Images, controller.Logger, draft.ImageURL),
		Fields:    draft.Fields,
		Notice:    draft.Notice,
	}
}

func (controller *ClothesController) respondDraft(c echo.Context, draft *models.CreationDraft) error {
	status := http.StatusOK
	if draft.State == models.DraftAnalyzing {
		status = http.StatusAccepted
	}
	return c.JSON(status, controller.draftResponse(c, draft))
}

func (controller *ClothesController) GetDraft(c echo.Context) error {
	account, _, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	draft, err := controller.Workflows.LoadDraft(c.Request().Context(), account.Username)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondDraft(c, draft)
}

// CaptureImage stores the photo and starts classification of it.
func (controller *ClothesController) CaptureImage(c echo.Context) error {
	var req CaptureImageIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	account, _, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	ctx := c.Request().Context()
	logger := controller.Logger.With(zap.String("username", account.Username))

	if services.IsRemoteURL(req.Image) {
		return respondWorkflowError(c, logger, fmt.Errorf("%w: upload the photo as a data url", services.ErrInvalidImage))
	}
	image, err := services.ParseDataURL(req.Image)
	if err != nil {
		return respondWorkflowError(c, logger, err)
	}

	attemptID := uuid.NewString()
	_, err = controller.Workflows.UpdateDraft(ctx, account.Username, func(d *models.CreationDraft) error {
		if d.State == models.DraftAnalyzing {
			return services.ErrWorkflowBusy
		}
		imageRef, err := controller.Images.Save(ctx, services.ObjectKey("clothes", account.Username, attemptID), image)
		if err != nil {
			return err
		}
		return services.BeginAnalysis(d, imageRef, attemptID, time.Now())
	})
	if err != nil {
		return respondWorkflowError(c, logger, err)
	}

	task, err := tasks.NewClassifyClothingTask(account.Username, attemptID)
	if err == nil {
		err = controller.Dispatcher.Dispatch(ctx, task)
	}
	if err != nil {
		sentry.CaptureException(err)
		logger.Error("failed to dispatch classification", zap.Error(err))
		controller.Workflows.UpdateDraft(ctx, account.Username, func(d *models.CreationDraft) error {
			services.FailAnalysis(d, attemptID)
			return nil
		})
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Service is not available, please try again a bit later"})
	}

	draft, err := controller.Workflows.LoadDraft(ctx, account.Username)
	if err != nil {
		return respondWorkflowError(c, logger, err)
	}
	return controller.respondDraft(c, draft)
}

func (controller *ClothesController) UpdateDraft(c echo.Context) error {
	var req models.DraftFields
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	account, _, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	draft, err := controller.Workflows.UpdateDraft(c.Request().Context(), account.Username, func(d *models.CreationDraft) error {
		return services.UpdateDraftFields(d, req)
	})
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondDraft(c, draft)
}

// SubmitDraft adds the drafted item to the inventory and starts over.
func (controller *ClothesController) SubmitDraft(c echo.Context) error {
	account, store, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	ctx := c.Request().Context()

	var created models.ClothingItem
	draft, err := controller.Workflows.UpdateDraft(ctx, account.Username, func(d *models.CreationDraft) error {
		item, err := services.BuildClothingItem(d, uuid.NewString(), time.Now())
		if err != nil {
			return err
		}
		if err := store.Add(ctx, item); err != nil {
			return err
		}
		created = item
		return services.ResetDraft(d)
	})
	if err != nil && created.ID != "" {
		// The draft was not reset, so the item must not stay in the inventory.
		if removeErr := store.Remove(ctx, created.ID); removeErr != nil {
			sentry.CaptureException(removeErr)
			controller.Logger.Error("failed to undo item add", zap.String("username", account.Username), zap.String("item", created.ID), zap.Error(removeErr))
		}
	}
	if errors.Is(err, services.ErrDuplicateIdentifier) {
		sentry.CaptureException(err)
		controller.Logger.Error("duplicate item identifier generated", zap.String("username", account.Username), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save item, please try again"})
	}
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	controller.Logger.Info("item added", zap.String("username", account.Username), zap.String("item", created.ID))
	return c.JSON(http.StatusCreated, ItemCreatedResponse{
		Item:  populateDisplayImages(ctx, controller.Images, controller.Logger, []models.ClothingItem{created})[0],
		Draft: controller.draftResponse(c, draft),
	})
}

// ResetDraft discards the current photo and form.
func (controller *ClothesController) ResetDraft(c echo.Context) error {
	account, _, ok := currentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	draft, err := controller.Workflows.UpdateDraft(c.Request().Context(), account.Username, services.ResetDraft)
	if err != nil {
		return respondWorkflowError(c, controller.Logger, err)
	}
	return controller.respondDraft(c, draft)
}
