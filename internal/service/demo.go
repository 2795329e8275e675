package service

import (
	"context"
	"errors"

	"github.com/deppfellow/demo-api/internal/middleware"
	"github.com/deppfellow/demo-api/internal/model"
	"github.com/deppfellow/demo-api/internal/server"
)

// Acknowledger records the receipt of a validated demo object.
type Acknowledger interface {
	Acknowledge(ctx context.Context, req *model.CreateDemoObjectRequest) error
}

// DemoService handles demo object creation.
type DemoService struct {
	ack Acknowledger
}

// NewDemoService constructs a DemoService that acknowledges through ack.
func NewDemoService(ack Acknowledger) *DemoService {
	return &DemoService{ack: ack}
}

// Create acknowledges req exactly once. req must already be validated.
func (d *DemoService) Create(ctx context.Context, req *model.CreateDemoObjectRequest) error {
	if req == nil {
		return errors.New("demo object request is nil")
	}
	return d.ack.Acknowledge(ctx, req)
}

// LogAcknowledger acknowledges by writing a log record, counting the object in
// Prometheus and, when New Relic runs, recording a custom event.
type LogAcknowledger struct {
	server *server.Server
}

// NewLogAcknowledger constructs the default Acknowledger.
func NewLogAcknowledger(s *server.Server) *LogAcknowledger {
	return &LogAcknowledger{server: s}
}

// Acknowledge writes the record through the request-scoped logger found in
// ctx, falling back to the application logger.
func (l *LogAcknowledger) Acknowledge(ctx context.Context, req *model.CreateDemoObjectRequest) error {
	logger, ok := middleware.LoggerFromContext(ctx)
	if !ok {
		logger = l.server.Logger
	}

	logger.Info().
		Str("demo_object", req.String()).
		Int("nested_count", req.Len()).
		Msg("demo object created")

	l.server.Metrics.RecordCreated()

	if app := l.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("DemoObjectCreated", map[string]interface{}{
			"nested_count": req.Len(),
		})
	}

	return nil
}
