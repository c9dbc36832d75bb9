package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/allergytrack/allergy-tracker/internal/api/handler"
	"github.com/allergytrack/allergy-tracker/internal/api/middleware"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

const (
	metricsSubsystem = "allergy_tracker"
	adminRole        = "admin"
)

// Services bundles what the routes call into. Audit may be nil.
type Services struct {
	Users         ports.UserService
	Allergies     ports.AllergyService
	Relationships ports.RelationshipService
	Stats         ports.StatsService
	Audit         ports.AuditRepository
}

// Options configures the router's cross-cutting middleware.
type Options struct {
	Logger zerolog.Logger
	// JWTSecret enables authentication on mutating /api routes when set.
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// ExposeInternalErrors returns the text of unexpected errors to clients.
	ExposeInternalErrors bool
	DBName               string
	Checks               []handler.DependencyCheck
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger, opts.ExposeInternalErrors)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
	}))
	e.Use(echomiddleware.BodyLimit("1M"))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(opts.DBName, opts.Checks...)
	e.GET("/", health.Status)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	apiGroup := e.Group("/api", rateLimiter(opts.RateLimitRPS, opts.RateLimitBurst))

	// Reads stay public; writes need a token and deletes the admin role.
	var write []echo.MiddlewareFunc
	if opts.JWTSecret != "" {
		write = append(write, middleware.Auth(opts.JWTSecret), middleware.AdminOnlyDeletes(adminRole))
	}

	users := handler.NewUserHandler(svc.Users)
	allergies := handler.NewAllergyHandler(svc.Allergies)
	links := handler.NewRelationshipHandler(svc.Relationships)
	stats := handler.NewStatsHandler(svc.Stats)
	audit := handler.NewAuditHandler(svc.Audit)

	apiGroup.GET("/users", users.List)
	apiGroup.GET("/users/:id", users.Get)
	apiGroup.POST("/users", users.Create, write...)
	apiGroup.PUT("/users/:id", users.Update, write...)
	apiGroup.PATCH("/users/:id", users.Update, write...)
	apiGroup.DELETE("/users/:id", users.Delete, write...)

	apiGroup.GET("/users/:id/allergies", links.ListForUser)
	apiGroup.POST("/users/:id/allergies", links.Assign, write...)
	apiGroup.DELETE("/users/:id/allergies", links.RemoveAllForUser, write...)
	apiGroup.DELETE("/users/:id/allergies/:allergyId", links.RemoveOne, write...)

	apiGroup.GET("/allergies", allergies.List)
	apiGroup.GET("/allergies/:id", allergies.Get)
	apiGroup.POST("/allergies", allergies.Create, write...)
	apiGroup.PUT("/allergies/:id", allergies.Update, write...)
	apiGroup.PATCH("/allergies/:id", allergies.Update, write...)
	apiGroup.DELETE("/allergies/:id", allergies.Delete, write...)

	apiGroup.GET("/allergies/:id/users", links.ListForAllergy)
	apiGroup.DELETE("/allergies/:id/users", links.RemoveAllForAllergy, write...)

	apiGroup.GET("/stats", stats.Allergies)
	apiGroup.GET("/stats/users", stats.Users)

	apiGroup.GET("/audit/:entity/:id", audit.List)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// rateLimiter limits each client IP to rps requests per second with the
// given burst. A non-positive rps disables limiting.
func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if burst <= 0 {
		burst = int(rps)
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}
