// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes two tools, compile_and_run_c and
// compile_and_run_java, each taking a single "code" argument and returning
// the program output (or a failure description) as text content.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, compiler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
