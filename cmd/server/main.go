// Package main is the entry point for the Compilebox server.
//
// The server accepts C-family and Java source, compiles it with the host
// toolchain inside a disposable workspace, runs the result under a
// wall-clock budget and returns the combined output. It is reachable as MCP
// tools (stdio or streamable HTTP) or as a plain REST API.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/compilebox/config"
	"github.com/isdmx/compilebox/httpapi"
	"github.com/isdmx/compilebox/logger"
	"github.com/isdmx/compilebox/mcpserver"
	"github.com/isdmx/compilebox/sandbox"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.New,
			logger.NewFromConfig,

			// Sandbox service, exposed to the transports through its interface
			fx.Annotate(
				sandbox.NewServiceFromConfig,
				fx.As(new(sandbox.Compiler)),
			),

			mcpserver.New,
			httpapi.New,
		),

		fx.Invoke(startTransport),

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}

func startTransport(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	mcp *mcpserver.MCPServer,
	api *httpapi.Server,
) {
	serve := func(name string, run func() error) {
		go func() {
			if err := run(); err != nil {
				log.Error("transport stopped", zap.String("transport", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
				return
			}
			log.Info("transport closed", zap.String("transport", name))
			_ = shutdowner.Shutdown()
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			switch cfg.Server.Transport {
			case "stdio":
				serve("stdio", mcp.ServeStdio)
			case "http":
				serve("http", mcp.ServeHTTP)
			case "rest":
				serve("rest", api.Start)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			switch cfg.Server.Transport {
			case "http":
				return mcp.Shutdown(ctx)
			case "rest":
				return api.Shutdown(ctx)
			}
			return nil
		},
	})
}
