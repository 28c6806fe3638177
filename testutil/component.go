package testutil

import (
	"context"

	"github.com/kbukum/testserver/component"
)

// TestComponent extends component.Component with state management for test
// isolation. A component can be reset between cases, or snapshotted and
// restored around a case that mutates it.
type TestComponent interface {
	component.Component

	// Reset returns the component to its initial state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state of the component.
	// The returned value can be passed to Restore.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore returns the component to a state captured by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}

// describe names a component for failure messages, using its Description
// when it has one.
func describe(c component.Component) string {
	d, ok := c.(component.Describable)
	if !ok {
		return c.Name()
	}
	desc := d.Describe()
	name := desc.Name
	if name == "" {
		name = c.Name()
	}
	if desc.Details == "" {
		return name
	}
	return name + " (" + desc.Details + ")"
}
