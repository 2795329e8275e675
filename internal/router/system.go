package router

import (
	"github.com/deppfellow/demo-api/internal/handler"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers operational endpoints that are not part of the API:
//  1. Health endpoint
//  2. Docs UI and the OpenAPI document
//  3. Prometheus metrics, when enabled
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
	r.GET("/docs/openapi.json", h.OpenAPI.ServeOpenAPISpec)

	if s.Config.Observability.Metrics.Enabled {
		r.GET(s.Config.Observability.Metrics.Path, echo.WrapHandler(s.Metrics.Handler()))
	}
}
