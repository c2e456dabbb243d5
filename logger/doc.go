// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap. Every component receives a *zap.Logger; user-visible
// console output goes through the console package instead.
//
// Usage:
//
//	logger, err := logger.New("production", "info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("Application started")
package logger
