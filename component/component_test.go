package component

import (
	"context"
	"testing"
)

type mockComponent struct {
	name    string
	running bool
}

func (m *mockComponent) Name() string                    { return m.name }
func (m *mockComponent) Start(ctx context.Context) error { m.running = true; return nil }
func (m *mockComponent) Stop(ctx context.Context) error  { m.running = false; return nil }
func (m *mockComponent) Health(ctx context.Context) Health {
	if m.running {
		return Health{Name: m.name, Status: StatusHealthy}
	}
	return Health{Name: m.name, Status: StatusUnhealthy, Message: "stopped"}
}

var _ Component = (*mockComponent)(nil)

func TestHealthStatusConstants(t *testing.T) {
	if StatusHealthy != "healthy" {
		t.Errorf("expected 'healthy', got %q", StatusHealthy)
	}
	if StatusUnhealthy != "unhealthy" {
		t.Errorf("expected 'unhealthy', got %q", StatusUnhealthy)
	}
	if StatusDegraded != "degraded" {
		t.Errorf("expected 'degraded', got %q", StatusDegraded)
	}
}

func TestHealth_Healthy(t *testing.T) {
	tests := []struct {
		status HealthStatus
		want   bool
	}{
		{StatusHealthy, true},
		{StatusDegraded, false},
		{StatusUnhealthy, false},
	}
	for _, tt := range tests {
		if got := (Health{Status: tt.status}).Healthy(); got != tt.want {
			t.Errorf("Health{%s}.Healthy() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := &mockComponent{name: "fixture"}

	if c.Health(ctx).Healthy() {
		t.Error("expected unhealthy before Start")
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !c.Health(ctx).Healthy() {
		t.Error("expected healthy after Start")
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if h := c.Health(ctx); h.Healthy() || h.Message != "stopped" {
		t.Errorf("unexpected health after Stop: %+v", h)
	}
}
