// Package validation contains the logic for validating
// request data.
//
// Payloads validate themselves, either through `validator` struct tags or
// through explicit predicates such as IsWord, and the errors are extracted
// into a format the client can understand.
package validation
