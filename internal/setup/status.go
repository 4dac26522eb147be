package setup

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/backmassage/photovault/internal/dedup"
	"github.com/backmassage/photovault/internal/organize"
)

// TreeStatus summarizes what a destination currently holds.
type TreeStatus struct {
	Photos     int
	Videos     int
	Metadata   int
	Originals  int
	Duplicates int

	// MediaBytes is the combined size of the photo and video trees.
	MediaBytes int64

	// IndexEntries counts digests in the dedup index; zero when no
	// index file exists yet.
	IndexEntries int64
}

// CollectStatus walks the destination tree and reads the index size.
// The destination must have been initialized.
func CollectStatus(layout organize.Layout, log *zap.SugaredLogger) (TreeStatus, error) {
	var st TreeStatus

	if fi, err := os.Stat(layout.Root); err != nil || !fi.IsDir() {
		return st, errors.Newf("destination not initialized: %s", layout.Root)
	}

	var err error
	if st.Photos, st.MediaBytes, err = countTree(layout.PhotosDir(), st.MediaBytes); err != nil {
		return st, err
	}
	if st.Videos, st.MediaBytes, err = countTree(layout.VideosDir(), st.MediaBytes); err != nil {
		return st, err
	}
	if st.Metadata, _, err = countTree(layout.MetadataDir(), 0); err != nil {
		return st, err
	}
	if st.Originals, _, err = countTree(layout.OriginalsDir(), 0); err != nil {
		return st, err
	}
	if st.Duplicates, _, err = countTree(layout.DuplicatesDir(), 0); err != nil {
		return st, err
	}

	if _, err := os.Stat(layout.IndexPath()); err == nil {
		ix, err := dedup.OpenIndex(layout.IndexPath(), log)
		if err != nil {
			return st, err
		}
		defer ix.Close()
		if st.IndexEntries, err = ix.Len(); err != nil {
			return st, err
		}
	}
	return st, nil
}

// countTree counts regular files under dir, accumulating their sizes
// onto bytes. A missing dir counts as empty.
func countTree(dir string, bytes int64) (int, int64, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		n++
		bytes += info.Size()
		return nil
	})
	if err != nil {
		return 0, bytes, errors.Wrapf(err, "walk %s", dir)
	}
	return n, bytes, nil
}
