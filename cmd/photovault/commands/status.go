package commands

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/photovault/internal/display"
	"github.com/backmassage/photovault/internal/organize"
	"github.com/backmassage/photovault/internal/setup"
)

// StatusCmd summarizes what the destination currently holds.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the destination tree and dedup index",
	Long: `Report how many photos, videos, sidecar mirrors, preserved originals
and duplicate records the destination holds, how much space the media
occupies, and how many digests the dedup index tracks.`,
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
		st, err := setup.CollectStatus(layout, log)
		if err != nil {
			return err
		}
		log.Infow("destination status",
			"root", cfg.Destination,
			"photos", st.Photos,
			"videos", st.Videos,
			"media_size", display.FormatBytes(st.MediaBytes),
			"metadata_records", st.Metadata,
			"originals", st.Originals,
			"duplicate_records", st.Duplicates,
			"index_entries", st.IndexEntries,
		)
		return nil
	},
}
