package handler

import (
	"time"

	"github.com/deppfellow/demo-api/internal/errs"
	"github.com/deppfellow/demo-api/internal/metrics"
	"github.com/deppfellow/demo-api/internal/middleware"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/deppfellow/demo-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// Handler is the base handler type that holds shared application dependencies.
//
// It is embedded by concrete handlers so they can reach config, logger and
// metrics via *server.Server.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// transaction is the part of a New Relic transaction the pipeline writes to.
//
// Errors returned by handlers are noticed once, by the tracing middleware.
type transaction interface {
	AddAttribute(key string, value interface{})
}

// currentTransaction returns the request's New Relic transaction, or nil.
var currentTransaction = func(c echo.Context) transaction {
	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		return txn
	}
	return nil
}

// --- Generic typed handler plumbing -----------------------------------------

// HandlerFuncNoContent is a typed endpoint function for routes that return no response body.
//
// Req must satisfy validation.Validatable and is a pointer type, because
// Echo's Bind requires a pointer to populate fields.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// ResponseHandler defines how a successful handler result is written to the
// HTTP response, and how observability attributes are attached for it.
type ResponseHandler interface {
	// Handle writes the HTTP response for the given result.
	Handle(c echo.Context, result interface{}) error

	// GetOperation returns an operation name used for structured logging.
	GetOperation() string

	// AddAttributes attaches New Relic attributes based on response type and/or result.
	AddAttributes(txn transaction, result interface{})
}

// NoContentResponseHandler writes a status with no body.
type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

func (h NoContentResponseHandler) AddAttributes(txn transaction, result interface{}) {
	// http.status_code is already set by tracing middleware
}

// rejectionReason maps a BindAndValidate error to its metrics label.
func rejectionReason(err error) string {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == errs.CodeMalformedPayload {
		return metrics.ReasonMalformedPayload
	}
	return metrics.ReasonValidationFailed
}

// handleRequest is the shared execution pipeline for all typed handlers.
//
// It centralizes:
//
// - request binding + validation
// - structured logging (with request context)
// - New Relic attributes (errors are noticed by the tracing middleware)
// - rejection metrics
// - timing (validation duration, handler duration, total duration)
// - response writing
//
// req must be freshly allocated for this request.
func handleRequest[Req validation.Validatable](
	h Handler,
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	method := c.Request().Method
	route := c.Path()

	// The transaction is set by the New Relic Echo middleware (nrecho).
	txn := currentTransaction(c)
	if txn != nil {
		txn.AddAttribute("handler.name", route)
		responseHandler.AddAttributes(txn, nil)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", method).
		Str("route", route).
		Logger()

	logger.Info().Msg("handling request")

	// ---------------- Validation phase ---------------------------------------
	validationStart := time.Now()

	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)
		reason := rejectionReason(err)

		logger.Warn().
			Err(err).
			Str("reason", reason).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		h.server.Metrics.RecordRejected(route, reason)

		if txn != nil {
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.reason", reason)
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}

		// The global error handler formats the response.
		return err
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	logger.Debug().
		Dur("validation_duration", validationDuration).
		Msg("request validation successful")

	// ---------------- Handler execution phase --------------------------------
	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		totalDuration := time.Since(start)

		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", totalDuration).
			Msg("handler execution failed")

		if txn != nil {
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
			txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		}
		return err
	}

	totalDuration := time.Since(start)

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// HandleNoContent wraps a handler with validation, error handling, logging,
// metrics, and tracing for endpoints that don't return content.
//
// newReq is called once per request so no state is shared between requests.
//
//	router.POST("/x", handler.HandleNoContent(h, myHandlerFn, http.StatusOK, model.NewMyReq))
func HandleNoContent[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	newReq func() Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(h, c, newReq(), func(c echo.Context, req Req) (interface{}, error) {
			err := handler(c, req)
			return nil, err
		}, NoContentResponseHandler{status: status})
	}
}
