// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes one compile-and-run tool per supported
// language family using the mark3labs/mcp-go library.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/compilebox/config"
	"github.com/isdmx/compilebox/sandbox"
)

// Tool names
const (
	ToolCompileC    = "compile_and_run_c"
	ToolCompileJava = "compile_and_run_java"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	compiler  sandbox.Compiler
	mcpServer *server.MCPServer

	mu         sync.Mutex
	httpServer *server.StreamableHTTPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, compiler sandbox.Compiler) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		compiler: compiler,
	}

	s.mcpServer = server.NewMCPServer("compilebox", "Compile and run C-family and Java snippets")

	s.registerCompileTool(ToolCompileC, sandbox.LanguageC,
		"Compile C/C++ source with g++ and run it. Returns the program's combined stdout/stderr, or an error description.")
	s.registerCompileTool(ToolCompileJava, sandbox.LanguageJava,
		"Compile Java source with javac and run its public class. Returns the program's combined stdout/stderr, or an error description.")

	return s, nil
}

func (s *MCPServer) registerCompileTool(name string, language sandbox.Language, description string) {
	tool := mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Complete source code of the program",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.compileHandler(language))
}

func (s *MCPServer) compileHandler(language sandbox.Language) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("code")
		if err != nil {
			return nil, fmt.Errorf("code parameter is required: %w", err)
		}

		s.logger.Info("compile requested",
			zap.String("language", string(language)),
			zap.Int("code_len", len(code)))

		result := s.compiler.Compile(ctx, sandbox.CompilationRequest{
			Language: language,
			Source:   code,
		})

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: result.Output,
				},
			},
			IsError: result.Failed,
		}, nil
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP and blocks until it fails or Shutdown is called
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	if err := httpServer.Start(fmt.Sprintf(":%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP transport. It is a no-op when ServeHTTP
// was never called.
func (s *MCPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down MCP HTTP server")
	return httpServer.Shutdown(ctx)
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
