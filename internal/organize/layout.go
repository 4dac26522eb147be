package organize

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/backmassage/photovault/internal/archive"
)

// Layout maps the fixed destination tree rooted at a single
// directory. All paths are derived, never stored.
type Layout struct {
	Root   string
	ByYear bool
}

// Subdirs lists every directory the layout expects to exist, relative
// to Root.
func (l Layout) Subdirs() []string {
	return []string{
		"photos", "videos", "metadata", "originals",
		"duplicates", "logs", "temp", "index",
	}
}

func (l Layout) PhotosDir() string     { return filepath.Join(l.Root, "photos") }
func (l Layout) VideosDir() string     { return filepath.Join(l.Root, "videos") }
func (l Layout) MetadataDir() string   { return filepath.Join(l.Root, "metadata") }
func (l Layout) OriginalsDir() string  { return filepath.Join(l.Root, "originals") }
func (l Layout) DuplicatesDir() string { return filepath.Join(l.Root, "duplicates") }
func (l Layout) LogsDir() string       { return filepath.Join(l.Root, "logs") }
func (l Layout) TempDir() string       { return filepath.Join(l.Root, "temp") }

// IndexPath is the dedup database location.
func (l Layout) IndexPath() string {
	return filepath.Join(l.Root, "index", "dedup.db")
}

// MediaDir returns the directory a file of the given kind and capture
// time lands in. With ByYear set, files nest one level deeper under
// their capture year.
func (l Layout) MediaDir(kind archive.Kind, ts time.Time) string {
	base := l.PhotosDir()
	if kind == archive.KindVideo {
		base = l.VideosDir()
	}
	if l.ByYear {
		return filepath.Join(base, strconv.Itoa(ts.Year()))
	}
	return base
}

// MediaPath builds the full canonical path for a media file.
func (l Layout) MediaPath(kind archive.Kind, ts time.Time, name, targetExt string) string {
	return filepath.Join(l.MediaDir(kind, ts), CanonicalName(ts, name, targetExt))
}
