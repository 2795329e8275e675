// Package handler is the first layer after the router.
//
// It binds requests, runs input validation using the
// validation package, and calls the appropriate service.
// It acts as the interface between the HTTP request and the
// service layer.
package handler
