package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/rosterdesk/roster/docs"
	"github.com/rosterdesk/roster/internal/api/handler"
	"github.com/rosterdesk/roster/internal/api/middleware"
	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	Log            zerolog.Logger
	JWTSecret      string
	AuthService    ports.AuthService
	StudentService ports.StudentService
	Sessions       middleware.SessionChecker
	Watcher        handler.SessionWatcher
	Readiness      *handler.HealthDependenciesHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
// It registers HTTP metrics with the default Prometheus registry, so call it
// once per process.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("roster"))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	sessionHandler := handler.NewSessionHandler(deps.Watcher, deps.Sessions, deps.Log)
	e.Server.RegisterOnShutdown(sessionHandler.Shutdown)
	studentHandler := handler.NewStudentHandler(deps.StudentService)
	requireAuth := middleware.Auth(deps.JWTSecret, deps.Sessions)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	auth := e.Group("/auth", requireAuth)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", authHandler.Session)
	auth.GET("/session/events", sessionHandler.Events)
	auth.POST("/register", authHandler.Register, middleware.RBAC(domain.RoleAdmin))

	// --- Students ---
	v1 := e.Group("/v1", requireAuth)
	v1.GET("/students", studentHandler.List)
	v1.POST("/students", studentHandler.Create)
	v1.GET("/students/export", studentHandler.Export)
	v1.POST("/students/import", studentHandler.Import)
	v1.DELETE("/students/:id", studentHandler.Delete)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
