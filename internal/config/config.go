// Package config holds runtime configuration: defaults, viper binding for
// flags, environment and config file, and validation. Invalid values are a
// configuration error and abort before any processing starts.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then overlaid by [FromViper] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Destination is the root of the output tree (photos/, videos/,
	// metadata/, originals/, duplicates/, logs/, temp/, index/).
	Destination string

	// Pipeline behavior.
	Workers int  // Worker pool size. Default: 4.
	DryRun  bool // Report what would be written without writing.

	// Conversion.
	Convert bool // Convert HEIC/HEIF (and other normalizable formats) to JPEG. Default: true.
	Quality int  // JPEG quality 1-100. Default: 95.

	// Deduplication.
	Dedup bool // Content-hash deduplication via the durable index. Default: true.

	// Preservation.
	PreserveMetadata  bool // Mirror sidecar records next to canonical names. Default: true.
	PreserveOriginals bool // Keep pre-conversion bytes under originals/. Default: false.

	// Organization.
	ByYear bool // Partition photos/ and videos/ by capture year.

	// Logging.
	Verbose  bool
	JSONLogs bool
	LogFile  string

	// Preflight (init subcommand).
	MinFreeGB int // Warn when destination free space is below this. Default: 10.
}

// DefaultConfig returns a Config with defaults matching the documented
// behavior of the backup tool.
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		DryRun:            false,
		Convert:           true,
		Quality:           95,
		Dedup:             true,
		PreserveMetadata:  true,
		PreserveOriginals: false,
		ByYear:            false,
		Verbose:           false,
		JSONLogs:          false,
		MinFreeGB:         10,
	}
}

// BindDefaults registers every config key with its default on v so that
// environment variables and config files resolve even when no flag is set.
// Keys use dotless lower-case names; env vars are PHOTOVAULT_<KEY>.
func BindDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("destination", d.Destination)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("convert", d.Convert)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("dedup", d.Dedup)
	v.SetDefault("preserve_metadata", d.PreserveMetadata)
	v.SetDefault("preserve_originals", d.PreserveOriginals)
	v.SetDefault("by_year", d.ByYear)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("json_logs", d.JSONLogs)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("min_free_gb", d.MinFreeGB)

	v.SetEnvPrefix("PHOTOVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// FromViper materializes a Config from v after defaults, config file,
// environment and flag bindings have been applied.
func FromViper(v *viper.Viper) Config {
	return Config{
		Destination:       NormalizeDirArg(v.GetString("destination")),
		Workers:           v.GetInt("workers"),
		DryRun:            v.GetBool("dry_run"),
		Convert:           v.GetBool("convert"),
		Quality:           v.GetInt("quality"),
		Dedup:             v.GetBool("dedup"),
		PreserveMetadata:  v.GetBool("preserve_metadata"),
		PreserveOriginals: v.GetBool("preserve_originals"),
		ByYear:            v.GetBool("by_year"),
		Verbose:           v.GetBool("verbose"),
		JSONLogs:          v.GetBool("json_logs"),
		LogFile:           v.GetString("log_file"),
		MinFreeGB:         v.GetInt("min_free_gb"),
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an
// empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks value ranges. Quality and worker-count violations are
// fatal configuration errors, never per-asset failures.
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return errors.Newf("quality must be between 1 and 100 (got %d)", c.Quality)
	}
	if c.Workers < 1 {
		return errors.Newf("workers must be at least 1 (got %d)", c.Workers)
	}
	if c.MinFreeGB < 0 {
		return errors.Newf("min free GB must not be negative (got %d)", c.MinFreeGB)
	}
	if c.Destination == "" {
		return errors.New("destination directory is required")
	}
	return nil
}
