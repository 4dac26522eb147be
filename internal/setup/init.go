package setup

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/organize"
)

// Sentinel errors returned by preflight validation.
var (
	ErrDestinationNotWritable = errors.New("destination is not writable")
	ErrDestinationIsFile      = errors.New("destination exists and is not a directory")
)

const readmeText = `This directory is managed by photovault.

photos/      canonical photo library, timestamped file names
videos/      canonical video library
metadata/    sidecar JSON mirrored next to its media file
originals/   pre-conversion originals (when preservation is enabled)
duplicates/  records of skipped duplicate content
logs/        per-run JSON reports
temp/        staging area, safe to empty between runs
index/       content-hash database used for deduplication
`

// Init creates the destination tree. It is idempotent: existing
// directories and files are left alone.
func Init(layout organize.Layout, log *zap.SugaredLogger) error {
	info, err := os.Stat(layout.Root)
	if err == nil && !info.IsDir() {
		return errors.Wrapf(ErrDestinationIsFile, "%s", layout.Root)
	}

	for _, sub := range layout.Subdirs() {
		dir := filepath.Join(layout.Root, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	readme := filepath.Join(layout.Root, "README.md")
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		if err := os.WriteFile(readme, []byte(readmeText), 0o644); err != nil {
			return errors.Wrap(err, "write README")
		}
	}

	if err := probeWritable(layout.TempDir()); err != nil {
		return err
	}

	log.Infow("destination initialized", "root", layout.Root)
	return nil
}

// probeWritable creates and removes a file in dir to confirm the
// filesystem actually accepts writes. Stat-based permission checks
// lie on network mounts.
func probeWritable(dir string) error {
	probe := filepath.Join(dir, ".probe-"+uuid.NewString())
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return errors.Wrapf(ErrDestinationNotWritable, "%s: %v", dir, err)
	}
	return os.Remove(probe)
}
