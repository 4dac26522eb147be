package commands

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/photovault/internal/organize"
	"github.com/backmassage/photovault/internal/setup"
)

// InitCmd prepares a destination directory without processing anything.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and validate the destination tree",
	Long: `Create the destination directory layout (photos/, videos/, metadata/,
originals/, duplicates/, logs/, temp/, index/), verify it is writable
and check available disk space. Running init is optional; process
performs the same preparation before every run.`,
	Args: cobra.NoArgs,
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

		layout := organize.Layout{Root: cfg.Destination, ByYear: cfg.ByYear}
		return setup.Preflight(layout, cfg.MinFreeGB, log)
	},
}
