package setup

import (
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/display"
	"github.com/backmassage/photovault/internal/organize"
)

// Preflight validates the destination right before a run: the tree
// must exist and be writable, and low free space is flagged. Free
// space is advisory only since archive contents are unknown until
// they are read.
func Preflight(layout organize.Layout, minFreeGB int, log *zap.SugaredLogger) error {
	if err := Init(layout, log); err != nil {
		return err
	}

	usage, err := disk.Usage(layout.Root)
	if err != nil {
		log.Warnw("could not determine free space", "root", layout.Root, "error", err)
		return nil
	}

	free := int64(usage.Free)
	log.Infow("destination ready",
		"root", layout.Root,
		"free", display.FormatBytes(free),
	)
	if minFreeGB > 0 && free < int64(minFreeGB)*1024*1024*1024 {
		log.Warnw("free space below threshold",
			"free", display.FormatBytes(free),
			"threshold_gb", minFreeGB,
		)
	}
	return nil
}
