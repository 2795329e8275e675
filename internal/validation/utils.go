package validation

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/deppfellow/demo-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Validate returns nil, validator.ValidationErrors (for tag-driven payloads)
// or CustomValidationErrors (for explicit predicate checks).
type Validatable interface {
	Validate() error
}

const (
	// ConstraintRequired marks a value that must be present and non-null.
	ConstraintRequired = "required"

	// ConstraintPattern marks a string that must match a regular expression.
	ConstraintPattern = "pattern"
)

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that are not expressed via validator tags.
type CustomValidationError struct {
	Field      string
	Index      *int
	Constraint string
	Message    string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	if len(c) == 0 {
		return "Validation failed"
	}

	parts := make([]string, 0, len(c))
	for _, e := range c {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
// 1) c.Bind(payload) populates the request struct from the incoming body.
// 2) payload.Validate() applies validation rules.
// 3) Returns *errs.HTTPError (400) with field-level errors if validation fails.
//
// A missing, blank or JSON null body is malformed whatever the transport
// framing. Bind failures never reach Validate. c.Bind expects a pointer to a struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := requireBody(c); err != nil {
		return err
	}

	if err := c.Bind(payload); err != nil {
		return errs.NewMalformedPayloadError(bindErrorMessage(err))
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewValidationFailedError(msg, fieldErrors)
	}

	return nil
}

// requireBody reads the request body, rejects one that carries no JSON value
// and puts the bytes back for Bind.
func requireBody(c echo.Context) error {
	req := c.Request()
	if req.Body == nil {
		return errs.NewMalformedPayloadError("Malformed request body: empty body")
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return errs.NewMalformedPayloadError("Malformed request body: unreadable body")
	}

	switch trimmed := bytes.TrimSpace(body); {
	case len(trimmed) == 0:
		return errs.NewMalformedPayloadError("Malformed request body: empty body")
	case bytes.Equal(trimmed, []byte("null")):
		return errs.NewMalformedPayloadError("Malformed request body: null body")
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	return nil
}

// bindErrorMessage turns an Echo bind error into a short client-facing message.
func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			// Echo messages look like "Syntax error: offset=1, error=...";
			// the part before the colon is stable and safe to expose.
			if head, _, found := strings.Cut(msg, ":"); found {
				return "Malformed request body: " + strings.ToLower(head)
			}
			return "Malformed request body: " + strings.ToLower(msg)
		}
	}
	return "Malformed request body"
}

// validateStruct calls v.Validate() and extracts field errors if validation fails.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, e := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field:      e.Field,
				Index:      e.Index,
				Constraint: e.Constraint,
				Message:    e.Message,
			})
		}
		return "Validation failed", ensureNonNil(fieldErrors)
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Validate returned something other than a field error list.
		return "Validation failed", []errs.FieldError{{Field: "", Message: err.Error()}}
	}

	// Convert validator.ValidationErrors into user-friendly messages.
	for _, fe := range validationErrors {
		var msg string

		switch fe.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if fe.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}

		case "max":
			if fe.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", fe.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())

		case "dive":
			msg = "some items are invalid"

		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", fe.Field(), fe.Tag(), fe.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Message:    msg,
		})
	}

	return "Validation failed", ensureNonNil(fieldErrors)
}

// ensureNonNil keeps a failing validation distinguishable from a passing one,
// which validateStruct signals with a nil slice.
func ensureNonNil(fieldErrors []errs.FieldError) []errs.FieldError {
	if fieldErrors == nil {
		return []errs.FieldError{}
	}
	return fieldErrors
}

// WordPattern matches one or more ASCII word characters: letters, digits, underscore.
const WordPattern = `^[\w]+$`

var wordRegex = regexp.MustCompile(WordPattern)

// IsWord reports whether s is a non-empty run of [A-Za-z0-9_].
func IsWord(s string) bool {
	return wordRegex.MatchString(s)
}
