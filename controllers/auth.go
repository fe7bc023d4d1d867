package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthController struct {
	Accounts  *services.AccountService
	JWTSecret string
	JWTExpiry time.Duration
	Logger    *zap.Logger
}

func (m *AuthController) issueToken(c echo.Context, username, sessionID string, status int) error {
	token, err := GenerateUserToken(username, sessionID, m.JWTSecret, m.JWTExpiry)
	if err != nil {
		sentry.CaptureException(err)
		m.Logger.Error("failed to sign user token", zap.String("username", username), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
	}
	return c.JSON(status, models.AuthOut{Username: username, AccessToken: token})
}

func (m *AuthController) AuthRoutes(g *echo.Group, jwtMiddleware echo.MiddlewareFunc) {
	g.POST("/register", func(c echo.Context) error {
		req := new(models.RegisterIn)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return err
		}
		username := strings.TrimSpace(req.Username)
		sessionID, err := m.Accounts.Register(c.Request().Context(), username, req.Password)
		if errors.Is(err, services.ErrUsernameTaken) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		}
		m.Logger.Info("user registered", zap.String("username", username))
		return m.issueToken(c, username, sessionID, http.StatusCreated)
	})

	g.POST("/login", func(c echo.Context) error {
		req := new(models.LoginIn)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return err
		}
		username := strings.TrimSpace(req.Username)
		sessionID, err := m.Accounts.Login(c.Request().Context(), username, req.Password)
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		}
		return m.issueToken(c, username, sessionID, http.StatusOK)
	})

	g.GET("/me", func(c echo.Context) error {
		account, store, ok := currentAccount(c)
		if !ok {
			return echo.ErrUnauthorized
		}
		return c.JSON(http.StatusOK, models.UserMeOut{Username: account.Username, ItemCount: store.Len()})
	}, jwtMiddleware, SessionMiddleware)

	g.POST("/logout", func(c echo.Context) error {
		account, _, ok := currentAccount(c)
		if !ok {
			return echo.ErrUnauthorized
		}
		if err := m.Accounts.Logout(c.Request().Context(), account.SessionID); err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
	}, jwtMiddleware, SessionMiddleware)
}
