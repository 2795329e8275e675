package handler

import (
	"github.com/deppfellow/demo-api/internal/model"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/deppfellow/demo-api/internal/service"
	"github.com/labstack/echo/v4"
)

// DemoHandler serves the demo object API.
type DemoHandler struct {
	Handler
	demoService *service.DemoService
}

func NewDemoHandler(s *server.Server, demoService *service.DemoService) *DemoHandler {
	return &DemoHandler{
		Handler:     NewHandler(s),
		demoService: demoService,
	}
}

// CreateDemoObject acknowledges a validated demo object. It only runs once
// binding and validation have succeeded.
func (h *DemoHandler) CreateDemoObject(c echo.Context, req *model.CreateDemoObjectRequest) error {
	return h.demoService.Create(c.Request().Context(), req)
}
