package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/demo-api/internal/middleware"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes a "system" endpoint that external systems can use to
// verify the service is alive.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns system health status.
//
// The service has no downstream dependencies, so being able to answer means
// healthy; the checks map only reports which optional integrations are active.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	newRelicStatus := "disabled"
	if h.server.LoggerService.GetApplication() != nil {
		newRelicStatus = "enabled"
	}

	metricsStatus := "disabled"
	if h.server.Config.Observability.Metrics.Enabled {
		metricsStatus = "enabled"
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"service":     h.server.Config.Observability.ServiceName,
		"environment": h.server.Config.Primary.Env,
		"uptime":      time.Since(h.server.StartedAt).Round(time.Second).String(),
		"checks": map[string]interface{}{
			"new_relic": map[string]interface{}{"status": newRelicStatus},
			"metrics":   map[string]interface{}{"status": metricsStatus},
		},
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}
