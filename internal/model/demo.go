// Package model holds the request and domain types exchanged with clients.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/deppfellow/demo-api/internal/validation"
)

// CreateNestedDemoObjectRequest is one element of CreateDemoObjectRequest.NestedDemoObjects.
//
// Data is a pointer so an explicit null (or a missing key) can be told apart
// from an empty string.
type CreateNestedDemoObjectRequest struct {
	Data *string `json:"data"`
}

// CreateDemoObjectRequest is the body of POST /api/test.
//
// Elements are pointers so a null entry in the list is reported instead of
// silently becoming a zero value.
type CreateDemoObjectRequest struct {
	NestedDemoObjects []*CreateNestedDemoObjectRequest `json:"nestedDemoObjects"`
}

// NewCreateDemoObjectRequest allocates an empty request for binding.
func NewCreateDemoObjectRequest() *CreateDemoObjectRequest {
	return &CreateDemoObjectRequest{}
}

// Validate checks every nested object and reports each failure with its position.
//
// An absent or empty list is valid. Validate never modifies the request.
func (r *CreateDemoObjectRequest) Validate() error {
	var failures validation.CustomValidationErrors

	for i, item := range r.NestedDemoObjects {
		if failure, ok := item.validateAt(i); !ok {
			failures = append(failures, failure)
		}
	}

	if len(failures) > 0 {
		return failures
	}
	return nil
}

// validateAt checks a single element found at index i of the enclosing list.
func (n *CreateNestedDemoObjectRequest) validateAt(i int) (validation.CustomValidationError, bool) {
	index := i
	path := fmt.Sprintf("nestedDemoObjects[%d]", i)

	switch {
	case n == nil:
		return validation.CustomValidationError{
			Field:      path,
			Index:      &index,
			Constraint: validation.ConstraintRequired,
			Message:    "is required",
		}, false

	case n.Data == nil:
		return validation.CustomValidationError{
			Field:      path + ".data",
			Index:      &index,
			Constraint: validation.ConstraintRequired,
			Message:    "is required",
		}, false

	case !validation.IsWord(*n.Data):
		return validation.CustomValidationError{
			Field:      path + ".data",
			Index:      &index,
			Constraint: validation.ConstraintPattern,
			Message:    "must match " + validation.WordPattern,
		}, false
	}

	return validation.CustomValidationError{}, true
}

// Len returns the number of nested objects carried by the request.
func (r *CreateDemoObjectRequest) Len() int {
	return len(r.NestedDemoObjects)
}

// String renders the request as compact JSON; this is the form written to
// acknowledgment records.
func (r *CreateDemoObjectRequest) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%+v", *r)
	}
	return string(b)
}
