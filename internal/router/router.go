// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the route table,
// mapping each method and path to its handler.
package router

import (
	"github.com/deppfellow/demo-api/internal/handler"
	"github.com/deppfellow/demo-api/internal/middleware"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the global middleware chain and every route.
//
// Middleware order matters: the request ID and the New Relic transaction must
// exist before the context enhancer builds the request logger, and the request
// logger must wrap everything that can fail.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.RateLimit.Limit(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	api := router.Group("/api")
	registerDemoRoutes(api, h)

	return router
}
