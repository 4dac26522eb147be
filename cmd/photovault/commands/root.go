// Package commands holds the photovault CLI command tree.
package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/config"
	"github.com/backmassage/photovault/internal/logging"
)

var (
	v       = viper.New()
	cfgFile string
)

// RootCmd is the photovault entry point.
var RootCmd = &cobra.Command{
	Use:   "photovault",
	Short: "Photo library backup: ingest exports into an organized, deduplicated tree",
	Long: `photovault ingests photo-service export archives and builds a clean,
canonical library out of them: timestamped file names, photos and videos
split apart, sidecar metadata preserved, duplicate content skipped, and
space-hungry formats converted to JPEG.

Examples:
  photovault init --dest ~/vault                 # prepare the destination tree
  photovault process --dest ~/vault takeout-*.zip
  photovault process --dest ~/vault --dry-run ~/extracted-export/
  photovault process --dest ~/vault --by-year --preserve-originals t.tgz`,
	SilenceUsage: true,
}

func init() {
	config.BindDefaults(v)

	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./photovault.yaml)")
	pf.StringP("dest", "d", "", "destination root directory (required)")
	pf.IntP("workers", "w", config.DefaultConfig().Workers, "concurrent worker count")
	pf.Int("quality", config.DefaultConfig().Quality, "JPEG quality for converted files (1-100)")
	pf.Bool("convert", true, "convert HEIC/HEIF and uncompressed rasters to JPEG")
	pf.Bool("dedup", true, "skip entries whose content hash is already indexed")
	pf.Bool("preserve-metadata", true, "mirror sidecar JSON into the metadata tree")
	pf.Bool("preserve-originals", false, "keep pre-conversion originals")
	pf.Bool("by-year", false, "partition photos and videos by capture year")
	pf.Bool("dry-run", false, "report what would happen without writing")
	pf.BoolP("verbose", "v", false, "debug-level logging")
	pf.Bool("json-logs", false, "machine-readable log output")
	pf.String("log-file", "", "also write logs to this file (JSON)")
	pf.Int("min-free-gb", config.DefaultConfig().MinFreeGB, "warn when destination free space drops below this")

	bind := map[string]string{
		"destination":        "dest",
		"workers":            "workers",
		"quality":            "quality",
		"convert":            "convert",
		"dedup":              "dedup",
		"preserve_metadata":  "preserve-metadata",
		"preserve_originals": "preserve-originals",
		"by_year":            "by-year",
		"dry_run":            "dry-run",
		"verbose":            "verbose",
		"json_logs":          "json-logs",
		"log_file":           "log-file",
		"min_free_gb":        "min-free-gb",
	}
	for key, flag := range bind {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	RootCmd.AddCommand(ProcessCmd)
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(VersionCmd)
}

// loadConfig reads the optional config file, materializes the Config
// and validates it.
func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.SetConfigName("photovault")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/photovault")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return config.Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	cfg := config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the run logger from config. The returned flush
// function is safe to defer.
func newLogger(cfg *config.Config) (*zap.SugaredLogger, func(), error) {
	return logging.New(logging.Options{
		JSON:    cfg.JSONLogs,
		Verbose: cfg.Verbose,
		LogFile: cfg.LogFile,
	})
}
