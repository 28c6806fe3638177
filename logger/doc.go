// Package logger provides structured logging for the test server using
// zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logger.NewDefault("testserver").WithComponent("runner")
//	log.Debug("listener bound", logger.Fields("addr", addr))
package logger
