package commands

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/photovault/internal/display"
	"github.com/backmassage/photovault/internal/pipeline"
)

// ProcessCmd runs the backup pipeline over one or more archives.
var ProcessCmd = &cobra.Command{
	Use:   "process [archive|directory ...]",
	Short: "Ingest export archives into the destination tree",
	Long: `Process one or more export archives (.zip, .tgz, .tar.gz) or already
extracted directories. Entries are hashed, deduplicated against the
destination's index, matched with their sidecar metadata, optionally
converted to JPEG, and placed under timestamped canonical names.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, flush, err := newLogger(&cfg)
		if err != nil {
			return err
		}
		defer flush()

		if !cfg.JSONLogs {
			display.PrintBanner()
		}
		log.Infow("starting run",
			"destination", cfg.Destination,
			"sources", len(args),
			"workers", cfg.Workers,
			"dry_run", cfg.DryRun,
		)

		_, err = pipeline.New(&cfg, log).Run(cmd.Context(), args)
		return err
	},
}
