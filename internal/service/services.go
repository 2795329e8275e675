package service

import (
	"github.com/deppfellow/demo-api/internal/server"
)

// Services is a container for all service instances.
type Services struct {
	Demo *DemoService
}

// NewServices wires every service with its default collaborators.
func NewServices(s *server.Server) *Services {
	return &Services{
		Demo: NewDemoService(NewLogAcknowledger(s)),
	}
}
