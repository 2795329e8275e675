// Package service contains the business logic.
//
// It sits behind the handler layer and receives data that has already been
// bound and validated. For this API that means acknowledging what was received.
package service
