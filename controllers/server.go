package controllers

import (
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("season", models.ValidateSeason)
	v.RegisterValidation("categoryfilter", models.ValidateCategoryFilter)
	return &CustomValidator{validator: v}
}

// Services are the collaborators shared by every controller.
type Services struct {
	KV         services.KeyValueStore
	Accounts   *services.AccountService
	Workflows  *services.WorkflowStore
	Images     services.ImageStore
	Dispatcher tasks.Dispatcher
	Metrics    *services.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	JWTSecret  string
	JWTExpiry  time.Duration
}

func SetupServer(s Services) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__kv", s.KV)
			c.Set("__accounts", s.Accounts)
			c.Set("__metrics", s.Metrics)
			return next(c)
		}
	})
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if s.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/options", Options)

	jwtMiddleware := echojwt.JWT([]byte(s.JWTSecret))

	authController := AuthController{Accounts: s.Accounts, JWTSecret: s.JWTSecret, JWTExpiry: s.JWTExpiry, Logger: s.Logger}
	authGroup := e.Group("/auth")
	authController.AuthRoutes(authGroup, jwtMiddleware)

	clothesController := ClothesController{Workflows: s.Workflows, Images: s.Images, Dispatcher: s.Dispatcher, Logger: s.Logger}
	wardrobeGroup := e.Group("/wardrobe", jwtMiddleware, SessionMiddleware)
	clothesController.ClothingRoutes(wardrobeGroup)

	stylistController := StylistController{Workflows: s.Workflows, Images: s.Images, Dispatcher: s.Dispatcher, Logger: s.Logger}
	stylistGroup := e.Group("/stylist", jwtMiddleware, SessionMiddleware)
	stylistController.StylistRoutes(stylistGroup)

	return e
}
