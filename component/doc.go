// Package component defines the lifecycle interfaces shared by test fixtures.
//
// A Component can be started, stopped and probed for health. Components that
// also implement Describable report a one-line summary of their configuration,
// which test helpers include in failure messages.
package component
