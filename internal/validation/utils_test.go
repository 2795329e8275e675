package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/demo-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordPayload struct {
	Value string `json:"value"`
}

func (p *wordPayload) Validate() error {
	if !IsWord(p.Value) {
		return CustomValidationErrors{{
			Field:      "value",
			Constraint: ConstraintPattern,
			Message:    "must match " + WordPattern,
		}}
	}
	return nil
}

type taggedPayload struct {
	Name string `json:"name" validate:"required,min=3"`
	Kind string `json:"kind" validate:"oneof=a b"`
}

func (p *taggedPayload) Validate() error {
	return validator.New().Struct(p)
}

type countingPayload struct {
	called *bool
}

func (p *countingPayload) Validate() error {
	*p.called = true
	return nil
}

type brokenPayload struct{}

func (p *brokenPayload) Validate() error {
	return errors.New("boom")
}

func newContext(body, contentType string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestIsWord(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"hello_1", true},
		{"ABC", true},
		{"_", true},
		{"0", true},
		{"", false},
		{"bad data", false},
		{"a-b", false},
		{"héllo", false},
		{"😀", false},
		{"abc\n", false},
		{"tab\t", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, IsWord(tc.input), "IsWord(%q)", tc.input)
	}
}

func TestCustomValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "Validation failed", CustomValidationErrors{}.Error())

	errList := CustomValidationErrors{
		{Field: "a", Message: "is required"},
		{Field: "b", Message: "must match x"},
	}
	assert.Equal(t, "Validation failed: a: is required; b: must match x", errList.Error())
}

func TestBindAndValidate(t *testing.T) {
	t.Run("valid payload binds", func(t *testing.T) {
		payload := &wordPayload{}
		err := BindAndValidate(newContext(`{"value":"hello_1"}`, echo.MIMEApplicationJSON), payload)

		require.NoError(t, err)
		assert.Equal(t, "hello_1", payload.Value)
	})

	t.Run("syntax error is malformed", func(t *testing.T) {
		err := BindAndValidate(newContext(`{not valid json`, echo.MIMEApplicationJSON), &wordPayload{})

		httpErr := requireHTTPError(t, err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, errs.CodeMalformedPayload, httpErr.Code)
		assert.Equal(t, "Malformed request body: syntax error", httpErr.Message)
		assert.Empty(t, httpErr.Errors)
	})

	t.Run("type mismatch is malformed", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"value":42}`, echo.MIMEApplicationJSON), &wordPayload{})

		httpErr := requireHTTPError(t, err)
		assert.Equal(t, errs.CodeMalformedPayload, httpErr.Code)
		assert.Equal(t, "Malformed request body: unmarshal type error", httpErr.Message)
	})

	t.Run("missing content type is malformed", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"value":"x"}`, ""), &wordPayload{})

		httpErr := requireHTTPError(t, err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, errs.CodeMalformedPayload, httpErr.Code)
	})

	t.Run("chunked body still binds", func(t *testing.T) {
		c := newContext(`{"value":"chunked_1"}`, echo.MIMEApplicationJSON)
		c.Request().ContentLength = -1
		c.Request().TransferEncoding = []string{"chunked"}

		payload := &wordPayload{}
		require.NoError(t, BindAndValidate(c, payload))
		assert.Equal(t, "chunked_1", payload.Value)
	})

	t.Run("custom validation failure", func(t *testing.T) {
		err := BindAndValidate(newContext(`{"value":"bad data"}`, echo.MIMEApplicationJSON), &wordPayload{})

		httpErr := requireHTTPError(t, err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, errs.CodeValidationFailed, httpErr.Code)
		assert.True(t, httpErr.Override)
		require.Len(t, httpErr.Errors, 1)
		assert.Equal(t, "value", httpErr.Errors[0].Field)
		assert.Equal(t, ConstraintPattern, httpErr.Errors[0].Constraint)
		assert.Equal(t, "must match "+WordPattern, httpErr.Errors[0].Message)
	})
}

func TestBindAndValidate_RejectsMissingEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		chunked bool
		message string
	}{
		{"empty", "", false, "Malformed request body: empty body"},
		{"empty chunked", "", true, "Malformed request body: empty body"},
		{"whitespace", " \n\t ", false, "Malformed request body: empty body"},
		{"null", "null", false, "Malformed request body: null body"},
		{"padded null", "  null\n", false, "Malformed request body: null body"},
		{"null chunked", "null", true, "Malformed request body: null body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newContext(tc.body, echo.MIMEApplicationJSON)
			if tc.chunked {
				c.Request().ContentLength = -1
				c.Request().TransferEncoding = []string{"chunked"}
			}

			called := false
			payload := &countingPayload{called: &called}
			err := BindAndValidate(c, payload)

			httpErr := requireHTTPError(t, err)
			assert.Equal(t, http.StatusBadRequest, httpErr.Status)
			assert.Equal(t, errs.CodeMalformedPayload, httpErr.Code)
			assert.Equal(t, tc.message, httpErr.Message)
			assert.False(t, called, "Validate must not run")
		})
	}
}

func TestExtractValidationError_Tags(t *testing.T) {
	t.Run("required and oneof", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&taggedPayload{Name: "", Kind: "c"})

		assert.Equal(t, "Validation failed", msg)
		require.Len(t, fieldErrors, 2)
		assert.Equal(t, "Name", fieldErrors[0].Field)
		assert.Equal(t, "is required", fieldErrors[0].Message)
		assert.Equal(t, "Kind", fieldErrors[1].Field)
		assert.Equal(t, "must be one of: a b", fieldErrors[1].Message)
	})

	t.Run("min on string", func(t *testing.T) {
		_, fieldErrors := validateStruct(&taggedPayload{Name: "ab", Kind: "a"})

		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "min", fieldErrors[0].Constraint)
		assert.Equal(t, "must be at least 3 characters", fieldErrors[0].Message)
	})

	t.Run("passing payload", func(t *testing.T) {
		msg, fieldErrors := validateStruct(&taggedPayload{Name: "abc", Kind: "b"})

		assert.Empty(t, msg)
		assert.Nil(t, fieldErrors)
	})
}

func TestExtractValidationError_OtherError(t *testing.T) {
	msg, fieldErrors := validateStruct(&brokenPayload{})

	assert.Equal(t, "Validation failed", msg)
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "boom", fieldErrors[0].Message)
}

func TestExtractValidationError_EmptyCustomList(t *testing.T) {
	_, fieldErrors := extractValidationError(CustomValidationErrors{})

	assert.NotNil(t, fieldErrors)
	assert.Empty(t, fieldErrors)
}
