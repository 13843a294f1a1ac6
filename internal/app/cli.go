package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
	flags.StringP("auth-type", "a", "", "Authentication type for SSE: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	flags.StringP("workspace-dir", "w", "", "Decoded workspace directory to load")
	flags.Bool("workspace-watch", true, "Follow changes to the workspace directory")
	flags.StringSliceP("workspace-exclude", "x", nil, "Exclude patterns (comma-separated, doublestar syntax)")
	flags.Int64("workspace-max-file-size", 0, "Skip files larger than this many bytes")
	flags.Int("workspace-parallelism", 0, "Parallel file reads while loading (0 uses all CPUs)")

	flags.IntP("search-max-results", "n", 0, "Maximum results per search")
	flags.String("search-index-dir", "", "Directory for the on-disk file index (empty keeps it in memory)")
	flags.Int("search-event-buffer", 0, "Queued workspace events per open result tree")
	flags.Int("search-max-open-views", 0, "Open result trees kept before the oldest is closed (0 for no limit)")
}
