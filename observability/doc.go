// Package observability wires OpenTelemetry into the test server.
//
// InitMeter and InitTracer configure OTLP/HTTP exporters and install the
// resulting providers as the otel globals. Metrics holds the instruments the
// server records for every exchange and lifecycle transition. Servers fall
// back to the global providers, so tests that never call Init* record into
// otel's no-op implementations.
package observability
