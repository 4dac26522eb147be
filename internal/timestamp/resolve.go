// Package timestamp derives one canonical capture instant per media file.
//
// Resolution never fails: each tier of the fallback chain is tried in order
// and the result carries a provenance tag naming the tier that produced it,
// so degraded resolutions stay auditable in the run report.
package timestamp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/backmassage/photovault/internal/metadata"
)

// Provenance names the fallback tier that produced a resolved timestamp.
type Provenance string

const (
	// ProvenanceMetadata: the sidecar record carried a capture time.
	ProvenanceMetadata Provenance = "metadata"
	// ProvenanceEmbedded: decoded from the media file's own header (EXIF).
	ProvenanceEmbedded Provenance = "embedded"
	// ProvenanceFilesystem: the entry's modification time.
	ProvenanceFilesystem Provenance = "filesystem"
	// ProvenanceFallback: the pipeline run's start time; flagged as
	// unresolved in the report.
	ProvenanceFallback Provenance = "fallback"
)

// Resolve picks the canonical capture instant for a media file.
// localPath points at a staged on-disk copy of the original bytes and is
// used for the embedded-EXIF tier; it may be empty to skip that tier.
// modTime is the container-recorded modification time (zero to skip), and
// runStart is the final fallback.
func Resolve(rec *metadata.Record, localPath, name string, modTime, runStart time.Time) (time.Time, Provenance) {
	if ts := rec.CaptureTime(); ts != nil {
		return *ts, ProvenanceMetadata
	}
	if localPath != "" {
		if ts, ok := embeddedTime(localPath, name); ok {
			return ts, ProvenanceEmbedded
		}
	}
	if !modTime.IsZero() {
		return modTime, ProvenanceFilesystem
	}
	return runStart, ProvenanceFallback
}

// embeddedTime decodes the capture time from the file's own metadata
// container. JPEG and TIFF are decoded directly; HEIC containers have their
// EXIF blob extracted first. Video containers are not decoded.
func embeddedTime(path, name string) (time.Time, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".tif", ".tiff":
		return exifTimeFromFile(path)
	case ".heic", ".heif":
		return exifTimeFromHEIC(path)
	}
	return time.Time{}, false
}

func exifTimeFromFile(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	ts, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func exifTimeFromHEIC(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	raw, err := goheif.ExtractExif(f)
	if err != nil || len(raw) == 0 {
		return time.Time{}, false
	}
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return time.Time{}, false
	}
	ts, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
