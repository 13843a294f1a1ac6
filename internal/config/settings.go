package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for SSE authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// WorkspaceSettings configuration for the loaded workspace
type WorkspaceSettings struct {
	Dir         string   `mapstructure:"dir"`
	Watch       bool     `mapstructure:"watch"`
	Exclude     []string `mapstructure:"exclude"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
	Parallelism int      `mapstructure:"parallelism"`
}

// Enabled reports whether a workspace directory is configured.
func (w *WorkspaceSettings) Enabled() bool {
	return w.Dir != ""
}

// SearchSettings configuration for searches and result views
type SearchSettings struct {
	MaxResults  int    `mapstructure:"max_results"`
	IndexDir    string `mapstructure:"index_dir"` // empty keeps the index in memory
	EventBuffer int    `mapstructure:"event_buffer"`
	// MaxOpenViews caps the open result trees; the oldest is closed first. Zero means no limit.
	MaxOpenViews int `mapstructure:"max_open_views"`
}

// Settings application settings
type Settings struct {
	Transport string            `mapstructure:"transport"`
	Host      string            `mapstructure:"host"`
	Port      int               `mapstructure:"port"`
	LogLevel  string            `mapstructure:"log_level"`
	Auth      AuthSettings      `mapstructure:"auth"`
	Workspace WorkspaceSettings `mapstructure:"workspace"`
	Search    SearchSettings    `mapstructure:"search"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.type", AuthTypeNone)

	// Workspace defaults
	v.SetDefault("workspace.dir", "")
	v.SetDefault("workspace.watch", true)
	v.SetDefault("workspace.max_file_size", int64(1024*1024)) // 1MB
	v.SetDefault("workspace.parallelism", 0)

	// Search defaults
	v.SetDefault("search.max_results", 1000)
	v.SetDefault("search.index_dir", "")
	v.SetDefault("search.event_buffer", 256)
	v.SetDefault("search.max_open_views", 32)

	// Environment variables
	v.SetEnvPrefix("RELIC_RESULTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("log_level", "RELIC_RESULTS_LOG_LEVEL")
	_ = v.BindEnv("auth.type", "RELIC_RESULTS_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "RELIC_RESULTS_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "RELIC_RESULTS_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "RELIC_RESULTS_AUTH_API_KEYS")
	_ = v.BindEnv("workspace.dir", "RELIC_RESULTS_WORKSPACE_DIR")
	_ = v.BindEnv("workspace.watch", "RELIC_RESULTS_WORKSPACE_WATCH")
	_ = v.BindEnv("workspace.exclude", "RELIC_RESULTS_WORKSPACE_EXCLUDE")
	_ = v.BindEnv("workspace.max_file_size", "RELIC_RESULTS_WORKSPACE_MAX_FILE_SIZE")
	_ = v.BindEnv("workspace.parallelism", "RELIC_RESULTS_WORKSPACE_PARALLELISM")
	_ = v.BindEnv("search.max_results", "RELIC_RESULTS_SEARCH_MAX_RESULTS")
	_ = v.BindEnv("search.index_dir", "RELIC_RESULTS_SEARCH_INDEX_DIR")
	_ = v.BindEnv("search.event_buffer", "RELIC_RESULTS_SEARCH_EVENT_BUFFER")
	_ = v.BindEnv("search.max_open_views", "RELIC_RESULTS_SEARCH_MAX_OPEN_VIEWS")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		bindFlag(v, flags, "transport", "transport")
		bindFlag(v, flags, "host", "host")
		bindFlag(v, flags, "port", "port")
		bindFlag(v, flags, "log_level", "log-level")
		bindFlag(v, flags, "auth.type", "auth-type")
		bindFlag(v, flags, "auth.basic.username", "auth-basic-username")
		bindFlag(v, flags, "auth.basic.password", "auth-basic-password")
		bindFlag(v, flags, "auth.api_keys", "auth-api-keys")

		bindFlag(v, flags, "workspace.dir", "workspace-dir")
		bindFlag(v, flags, "workspace.watch", "workspace-watch")
		bindFlag(v, flags, "workspace.exclude", "workspace-exclude")
		bindFlag(v, flags, "workspace.max_file_size", "workspace-max-file-size")
		bindFlag(v, flags, "workspace.parallelism", "workspace-parallelism")

		bindFlag(v, flags, "search.max_results", "search-max-results")
		bindFlag(v, flags, "search.index_dir", "search-index-dir")
		bindFlag(v, flags, "search.event_buffer", "search-event-buffer")
		bindFlag(v, flags, "search.max_open_views", "search-max-open-views")
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	settings.Auth.APIKeys = splitListEnv(settings.Auth.APIKeys, "RELIC_RESULTS_AUTH_API_KEYS")
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}
	settings.Auth.APIKeys = filterEmptyStrings(settings.Auth.APIKeys)

	// Handle explicit parsing of exclude patterns if provided via env var as comma-separated string
	settings.Workspace.Exclude = splitListEnv(settings.Workspace.Exclude, "RELIC_RESULTS_WORKSPACE_EXCLUDE")

	// Trim spaces from exclude patterns and drop empty ones
	for i := range settings.Workspace.Exclude {
		settings.Workspace.Exclude[i] = strings.TrimSpace(settings.Workspace.Exclude[i])
	}
	settings.Workspace.Exclude = filterEmptyStrings(settings.Workspace.Exclude)

	// Expand home directory in paths
	settings.Workspace.Dir = expandHomeDir(settings.Workspace.Dir)
	settings.Search.IndexDir = expandHomeDir(settings.Search.IndexDir)

	return &settings, nil
}

// splitListEnv splits a comma-separated env var when viper left it as a single value.
func splitListEnv(values []string, env string) []string {
	raw := os.Getenv(env)
	if raw == "" {
		return values
	}
	if len(values) == 0 || (len(values) == 1 && strings.Contains(values[0], ",")) {
		return strings.Split(raw, ",")
	}
	return values
}

// bindFlag binds a flag when the flag set defines it.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	if f := flags.Lookup(name); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ParseLogLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// ValidateSettings checks for invalid or conflicting configuration.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if s.LogLevel != "" {
		if _, err := ParseLogLevel(s.LogLevel); err != nil {
			return err
		}
	}

	if err := validateAuthSettings(&s.Auth); err != nil {
		return err
	}

	if err := validateWorkspaceSettings(&s.Workspace); err != nil {
		return err
	}

	return validateSearchSettings(&s.Search)
}

// validateAuthSettings rejects mutually exclusive or incomplete auth configuration
func validateAuthSettings(a *AuthSettings) error {
	hasBasicCreds := a.Basic.Username != "" || a.Basic.Password != ""
	hasAPIKeys := len(a.APIKeys) > 0

	switch a.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if a.Basic.Username == "" || a.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + a.Type)
	}
	return nil
}

// validateWorkspaceSettings validates the workspace configuration
func validateWorkspaceSettings(w *WorkspaceSettings) error {
	if !w.Enabled() {
		return nil // No validation needed when disabled
	}

	info, err := os.Stat(w.Dir)
	if err != nil {
		return fmt.Errorf("workspace-dir is not accessible: %w", err)
	}
	if !info.IsDir() {
		return errors.New("workspace-dir must be a directory: " + w.Dir)
	}

	if w.MaxFileSize < 0 {
		return errors.New("workspace-max-file-size must not be negative")
	}

	if w.Parallelism < 0 {
		return errors.New("workspace-parallelism must not be negative")
	}

	return nil
}

// validateSearchSettings validates the search configuration
func validateSearchSettings(s *SearchSettings) error {
	if s.MaxResults <= 0 {
		return errors.New("search-max-results must be positive")
	}

	if s.EventBuffer <= 0 {
		return errors.New("search-event-buffer must be positive")
	}

	if s.MaxOpenViews < 0 {
		return errors.New("search-max-open-views must not be negative")
	}

	return nil
}
