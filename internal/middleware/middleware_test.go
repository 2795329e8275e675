package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/demo-api/internal/config"
	"github.com/deppfellow/demo-api/internal/errs"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.Config, out *bytes.Buffer) *server.Server {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := zerolog.New(out)
	s, err := server.New(cfg, &log, nil)
	require.NoError(t, err)
	return s
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("reuses incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", rec.Body.String())
	})

	t.Run("generates uuid", func(t *testing.T) {
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, rec.Body.String())
	})
}

func TestRequestID_ReplacesUnusableIDs(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for name, id := range map[string]string{
		"too long":     strings.Repeat("a", maxRequestIDLength+1),
		"contains tab": "abc\tdef",
		"has space":    "abc def",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, id)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			assert.NotEqual(t, id, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestGetRequestID_Unset(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
}

func TestGetLogger_FallsBackToNop(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	logger := GetLogger(c)
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestLoggerFromContext(t *testing.T) {
	_, ok := LoggerFromContext(context.Background())
	assert.False(t, ok)

	logger := zerolog.Nop()
	got, ok := LoggerFromContext(WithLogger(context.Background(), &logger))
	assert.True(t, ok)
	assert.Same(t, &logger, got)
}

func TestEnhanceContext(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t, nil, &buf)

	e := echo.New()
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	e.GET("/things/:id", func(c echo.Context) error {
		fromEcho := GetLogger(c)
		fromCtx, ok := LoggerFromContext(c.Request().Context())
		require.True(t, ok)
		assert.Same(t, fromEcho, fromCtx)

		fromCtx.Info().Msg("inside")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/things/7", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "rid-1", record["request_id"])
	assert.Equal(t, http.MethodGet, record["method"])
	assert.Equal(t, "/things/:id", record["path"])
}

func TestGlobalErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	global := NewGlobalMiddlewares(newTestServer(t, nil, &buf))

	serve := func(method string, err error) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(method, "/", nil), rec)
		global.GlobalErrorHandler(err, c)
		return rec
	}

	t.Run("http error passes through", func(t *testing.T) {
		index := 0
		rec := serve(http.MethodPost, errs.NewValidationFailedError("Validation failed", []errs.FieldError{
			{Field: "nestedDemoObjects[0].data", Index: &index, Constraint: "pattern", Message: "must match"},
		}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, errs.CodeValidationFailed, body.Code)
		assert.True(t, body.Override)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "nestedDemoObjects[0].data", body.Errors[0].Field)
	})

	t.Run("wrapped http error", func(t *testing.T) {
		rec := serve(http.MethodPost, errors.Wrap(errs.NewMalformedPayloadError("Malformed request body"), "bind"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errs.CodeMalformedPayload, decodeError(t, rec).Code)
	})

	t.Run("echo not found", func(t *testing.T) {
		rec := serve(http.MethodGet, echo.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "NOT_FOUND", body.Code)
		assert.Equal(t, "Route not found", body.Message)
	})

	t.Run("echo method not allowed", func(t *testing.T) {
		rec := serve(http.MethodGet, echo.ErrMethodNotAllowed)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Code)
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		rec := serve(http.MethodGet, errors.New("database password is hunter2"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Code)
		assert.NotContains(t, rec.Body.String(), "hunter2")
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := serve(http.MethodHead, echo.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})
}

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFromError(errs.NewMalformedPayloadError("x"), http.StatusOK))
	assert.Equal(t, http.StatusMethodNotAllowed, statusFromError(echo.ErrMethodNotAllowed, http.StatusOK))
	assert.Equal(t, http.StatusOK, statusFromError(errors.New("x"), http.StatusOK))
}

func newLimitedEcho(t *testing.T, enabled bool) (*echo.Echo, *bytes.Buffer) {
	t.Helper()

	return newLimitedEchoWith(t, config.RateLimitConfig{
		Enabled:           enabled,
		RequestsPerSecond: 1,
		Burst:             1,
	})
}

func newLimitedEchoWith(t *testing.T, limit config.RateLimitConfig) (*echo.Echo, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.RateLimit = limit

	var buf bytes.Buffer
	s := newTestServer(t, cfg, &buf)
	m := NewMiddlewares(s)

	e := echo.New()
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler
	e.Use(m.RateLimit.Limit())
	e.GET("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e, &buf
}

func TestRateLimit_Enabled(t *testing.T) {
	e, buf := newLimitedEcho(t, true)

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, second).Code)
	assert.Contains(t, buf.String(), "rate limit exceeded")
}

func TestBurstFor(t *testing.T) {
	cases := []struct {
		name  string
		rps   float64
		burst int
		want  int
	}{
		{"explicit burst wins", 0.5, 7, 7},
		{"follows whole rate", 20, 0, 20},
		{"rounds fractional rate up", 2.5, 0, 3},
		{"sub-one rate keeps one token", 0.5, 0, 1},
		{"zero rate keeps one token", 0, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := burstFor(config.RateLimitConfig{RequestsPerSecond: tc.rps, Burst: tc.burst})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRateLimit_SubOneRateAdmitsFirstRequest(t *testing.T) {
	e, _ := newLimitedEchoWith(t, config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.5,
	})

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	e, _ := newLimitedEcho(t, false)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.CORSAllowedOrigins = []string{"https://app.example"}

	var buf bytes.Buffer
	global := NewGlobalMiddlewares(newTestServer(t, cfg, &buf))

	e := echo.New()
	e.Use(global.CORS())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
