package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)

	if s.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
		switch s.Auth.Type {
		case AuthTypeBasic:
			logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
			logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
		case AuthTypeAPIKey:
			logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
		}
	}

	if !s.Workspace.Enabled() {
		logger.InfoContext(ctx, "Config: workspace", "value", "disabled")
		return
	}
	logger.InfoContext(ctx, "Config: workspace.dir", "value", s.Workspace.Dir)
	logger.InfoContext(ctx, "Config: workspace.watch", "value", s.Workspace.Watch)
	if len(s.Workspace.Exclude) > 0 {
		logger.InfoContext(ctx, "Config: workspace.exclude", "count", len(s.Workspace.Exclude))
	}
	logger.InfoContext(ctx, "Config: workspace.max_file_size", "value", s.Workspace.MaxFileSize)
	logger.InfoContext(ctx, "Config: search.max_results", "value", s.Search.MaxResults)
	if s.Search.IndexDir == "" {
		logger.InfoContext(ctx, "Config: search.index_dir", "value", "memory")
	} else {
		logger.InfoContext(ctx, "Config: search.index_dir", "value", s.Search.IndexDir)
	}
	logger.InfoContext(ctx, "Config: search.max_open_views", "value", s.Search.MaxOpenViews)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked credentials
func AuthSettingsLogValue(a AuthSettings) slog.Value {
	keys := make([]string, len(a.APIKeys))
	for i := range a.APIKeys {
		keys[i] = "****"
	}
	password := ""
	if a.Basic.Password != "" {
		password = "****"
	}
	return slog.GroupValue(
		slog.String("type", a.Type),
		slog.Group("basic",
			slog.String("username", a.Basic.Username),
			slog.String("password", password),
		),
		slog.Any("api_keys", keys),
	)
}

// WorkspaceSettingsLogValue returns a slog.Value for WorkspaceSettings
func WorkspaceSettingsLogValue(w WorkspaceSettings) slog.Value {
	return slog.GroupValue(
		slog.String("dir", w.Dir),
		slog.Bool("watch", w.Watch),
		slog.Any("exclude", w.Exclude),
		slog.Int64("max_file_size", w.MaxFileSize),
		slog.Int("parallelism", w.Parallelism),
	)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.String("log_level", s.LogLevel),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
		slog.Any("workspace", WorkspaceSettingsLogValue(s.Workspace)),
		slog.Group("search",
			slog.Int("max_results", s.Search.MaxResults),
			slog.String("index_dir", s.Search.IndexDir),
			slog.Int("event_buffer", s.Search.EventBuffer),
			slog.Int("max_open_views", s.Search.MaxOpenViews),
		),
	)
}
