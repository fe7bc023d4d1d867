package controllers

import (
	"errors"
	"net/http"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionMiddleware resolves the login session behind the bearer token and
// scopes an ItemStore to its user.
func SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accounts := c.Get("__accounts").(*services.AccountService)
		kv := c.Get("__kv").(services.KeyValueStore)
		metrics, _ := c.Get("__metrics").(*services.Metrics)

		userRaw := c.Get("user")
		if userRaw == nil {
			return echo.ErrUnauthorized
		}
		token := userRaw.(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		subject, _ := claims["sub"].(string)
		sessionID, _ := claims["jti"].(string)
		if subject == "" || sessionID == "" {
			return echo.ErrUnauthorized
		}

		ctx := c.Request().Context()
		username, err := accounts.ResolveSession(ctx, sessionID)
		if errors.Is(err, services.ErrSessionNotFound) || (err == nil && username != subject) {
			return echo.ErrUnauthorized
		}
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Service is not available, please try again a bit later"})
		}

		store, err := services.NewItemStore(ctx, kv, username)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load wardrobe"})
		}
		store.Metrics = metrics

		c.Set("currentUser", models.Account{Username: username, SessionID: sessionID})
		c.Set("itemStore", store)
		return next(c)
	}
}

func currentAccount(c echo.Context) (models.Account, *services.ItemStore, bool) {
	account, ok := c.Get("currentUser").(models.Account)
	if !ok {
		return models.Account{}, nil, false
	}
	store, ok := c.Get("itemStore").(*services.ItemStore)
	return account, store, ok
}
