package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/testserver/component"
)

// Manager starts, stops and resets several test components together.
type Manager struct {
	ctx        context.Context
	components []TestComponent
	mu         sync.RWMutex
}

// NewManager creates a new test component manager.
func NewManager(ctx context.Context) *Manager {
	return &Manager{
		ctx:        ctx,
		components: make([]TestComponent, 0),
	}
}

// Add registers a test component with the manager.
func (m *Manager) Add(component TestComponent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component)
}

// Components returns all registered components.
func (m *Manager) Components() []TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]TestComponent, len(m.components))
	copy(result, m.components)
	return result
}

// Get retrieves the first component with the given name, or nil.
func (m *Manager) Get(name string) TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, comp := range m.components {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

// StartAll starts all registered components in order.
// If any component fails to start, the ones already started are stopped
// and the start error is returned.
func (m *Manager) StartAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, comp := range m.components {
		if err := comp.Start(m.ctx); err != nil {
			startErr := fmt.Errorf("failed to start component %s: %w", describe(comp), err)
			return errors.Join(startErr, stopReverse(m.ctx, m.components[:i]))
		}
	}
	return nil
}

// StopAll stops all registered components in reverse order.
// Every component is stopped even if some fail; the failures are joined.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stopReverse(m.ctx, m.components)
}

func stopReverse(ctx context.Context, components []TestComponent) error {
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		if err := comp.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop component %s: %w", describe(comp), err))
		}
	}
	return errors.Join(errs...)
}

// ResetAll resets all registered components to their initial state.
// If any component fails to reset, returns immediately with that error.
func (m *Manager) ResetAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, comp := range m.components {
		if err := comp.Reset(m.ctx); err != nil {
			return fmt.Errorf("failed to reset component %s: %w", describe(comp), err)
		}
	}
	return nil
}

// HealthAll returns the health of every registered component in order.
func (m *Manager) HealthAll() []component.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]component.Health, 0, len(m.components))
	for _, comp := range m.components {
		results = append(results, comp.Health(m.ctx))
	}
	return results
}

// Cleanup is an alias for StopAll for use with defer or t.Cleanup.
func (m *Manager) Cleanup() error {
	return m.StopAll()
}
