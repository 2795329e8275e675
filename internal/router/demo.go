package router

import (
	"net/http"

	"github.com/deppfellow/demo-api/internal/handler"
	"github.com/deppfellow/demo-api/internal/model"
	"github.com/labstack/echo/v4"
)

// registerDemoRoutes registers the demo API under /api. This is the only API route.
func registerDemoRoutes(api *echo.Group, h *handler.Handlers) {
	api.POST("/test", handler.HandleNoContent(
		h.Demo.Handler,
		h.Demo.CreateDemoObject,
		http.StatusOK,
		model.NewCreateDemoObjectRequest,
	))
}
