// Package main is the entry point for the Compilebox server.
//
// The server compiles and runs untrusted C-family and Java snippets in
// per-request workspaces. It supports the MCP stdio and HTTP transports and
// a REST API (POST /compiler/c, POST /compiler/java), selected by
// server.transport.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
