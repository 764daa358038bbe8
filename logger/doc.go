// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap. Output always goes to stderr so that the MCP stdio
// transport keeps stdout for protocol frames.
//
// Usage:
//
//	logger, err := logger.New("production", "info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("Application started")
//	logger.Error("An error occurred", zap.Error(err))
package logger
