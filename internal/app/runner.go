package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-results/internal/config"
	mcputil "github.com/sha1n/relic-results/internal/mcp"
	"github.com/sha1n/relic-results/internal/workbench"
	"github.com/spf13/pflag"
)

// ServerName is reported to MCP clients.
const ServerName = "relic-results"

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(context.Context, *mcp.Server, *config.Settings) error
	CreateServer      func(context.Context, *config.Settings, string) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	level, err := config.ParseLogLevel(settings.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting RELIC results server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(ctx, settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(ctx, mcpServer, settings)
}

// CreateMCPServer creates the MCP server with registered tools
func CreateMCPServer(ctx context.Context, settings *config.Settings, version string) (*mcp.Server, func(), error) {
	cfg := mcputil.ServerConfig{
		Name:    ServerName,
		Version: version,
	}
	var cleanup func()

	// Load the workspace if one is configured
	if settings.Workspace.Enabled() {
		svc, err := workbench.NewService(settings)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create workbench: %w", err)
		}

		// Watching outlives any single request, so it follows the server context
		if err := svc.Initialize(ctx); err != nil {
			slog.Error("Workspace initialization failed", "error", err)
			// Close service on initialization failure and continue without it
			if closeErr := svc.Close(); closeErr != nil {
				slog.Error("Failed to close workbench", "error", closeErr)
			}
		} else {
			cfg.Workbench = svc
			cleanup = func() {
				if err := svc.Close(); err != nil {
					slog.Error("Failed to close workbench", "error", err)
				}
			}
		}
	}

	return mcputil.CreateServer(cfg), cleanup, nil
}
