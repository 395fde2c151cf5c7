// Package cmd provides CLI commands for the docent binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for commands with a live view (ask, upload).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (ask, upload only)",
	}
)

// Shared backend flags.
var (
	// ConfigFlag points at a docent.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default ./docent.yaml when present)",
	}

	// APIBaseFlag overrides the backend base URL.
	APIBaseFlag = &cli.StringFlag{
		Name:  "api-base",
		Usage: "Backend base URL (overrides $DOCENT_API_BASE and config)",
	}

	// LogLevelFlag sets the minimum log level.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
		Value: "warn",
	}

	// TimeoutFlag bounds non-streaming requests.
	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Timeout for upload and query requests",
	}

	// StatsFlag prints the metrics snapshot to stderr on exit.
	StatsFlag = &cli.BoolFlag{
		Name:  "stats",
		Usage: "Print counters to stderr when the command finishes",
	}
)

// ReadOnlyFlags returns the output flags.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// BackendFlags returns the output flags plus the flags of commands that
// talk to the backend.
func BackendFlags() []cli.Flag {
	return append(ReadOnlyFlags(),
		ConfigFlag,
		APIBaseFlag,
		LogLevelFlag,
		TimeoutFlag,
		StatsFlag,
	)
}

// resolveString returns the CLI value when explicitly set, then the config
// value, then the flag's default.
func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if cfgVal != "" {
		return cfgVal
	}
	return c.String(name)
}

// resolveInt is resolveString for int flags. Zero config values fall through.
func resolveInt(c *cli.Context, name string, cfgVal int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	if cfgVal != 0 {
		return cfgVal
	}
	return c.Int(name)
}

// resolveDuration is resolveString for duration flags.
func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if cfgVal != 0 {
		return cfgVal
	}
	return c.Duration(name)
}

// configVal reads a field from a possibly nil config.
func configVal[C any, T any](cfg *C, get func(*C) T) T {
	var zero T
	if cfg == nil {
		return zero
	}
	return get(cfg)
}
