package server

import (
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/entities"
	"github.com/Ramsey-B/fern/pkg/routes/graph"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/resolutions"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Options carries the handlers the server exposes. Nil handlers are not registered.
type Options struct {
	ServiceName  string
	BodyLimit    string
	AllowOrigins []string
	AllowMethods []string

	Entities    *entities.Handler
	Graph       *graph.Handler
	Resolutions *resolutions.Handler
	Health      *health.Checker
}

// New builds the echo server with middleware and routes
func New(opts Options, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	if opts.ServiceName != "" {
		e.Use(otelecho.Middleware(opts.ServiceName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	if opts.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(opts.BodyLimit))
	}
	if len(opts.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: opts.AllowMethods,
		}))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if opts.Health != nil {
		opts.Health.RegisterRoutes(e)
	}

	api := e.Group("/api/v1")
	if opts.Entities != nil {
		opts.Entities.Register(api)
	}
	if opts.Resolutions != nil {
		opts.Resolutions.Register(api)
	}
	if opts.Graph != nil {
		opts.Graph.Register(api.Group("/graph"))
	}

	return e
}
