package server

import (
	"context"
	"fmt"

	"github.com/kbukum/testserver/component"
	apperrors "github.com/kbukum/testserver/errors"
	"github.com/kbukum/testserver/server/record"
)

const componentName = "testserver"

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)

// Name returns the component name.
func (s *Server) Name() string { return componentName }

// Health reports healthy while the server is running.
func (s *Server) Health(ctx context.Context) component.Health {
	state := s.State()
	if state == StateRunning {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "server is " + string(state),
	}
}

// Describe returns a one-line summary of the server.
func (s *Server) Describe() component.Description {
	s.mu.Lock()
	addr, port, state := s.addrLocked(), s.port, s.state
	s.mu.Unlock()
	return component.Description{
		Name:    "Test Server",
		Type:    "server",
		Details: fmt.Sprintf("%s state=%s", addr, state),
		Port:    port,
	}
}

// Reset discards every recorded exchange, including those of the current
// run that were not yet moved into Log.
func (s *Server) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		s.queue.Drain(0)
	}
	s.exchanges = nil
	return nil
}

// Snapshot returns a copy of Log as a []record.Exchange.
func (s *Server) Snapshot(ctx context.Context) (interface{}, error) {
	return s.Log(), nil
}

// Restore replaces the log with a value returned by Snapshot.
func (s *Server) Restore(ctx context.Context, snapshot interface{}) error {
	exchanges, ok := snapshot.([]record.Exchange)
	if !ok {
		return apperrors.Validation(fmt.Sprintf("snapshot must be []record.Exchange, got %T", snapshot))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = record.CloneAll(exchanges)
	return nil
}
