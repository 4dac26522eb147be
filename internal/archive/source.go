package archive

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Entry is one file record within a scanned source (media or sidecar).
// Name is the base filename as recorded by the exporter; directories inside
// the archive are flattened since Takeout nesting carries no organization
// signal beyond album folders.
type Entry struct {
	// Name is the entry's base filename, e.g. "IMG_0001.JPG".
	Name string
	// Path is the full path within the source, used to open the entry and
	// to disambiguate identical basenames across album folders.
	Path string
	// Size in bytes as declared by the container.
	Size int64
	// ModTime is the container-recorded modification time; zero when the
	// container does not record one.
	ModTime time.Time
}

// Source is one input container holding media entries and sidecar records.
type Source interface {
	// Name identifies the source (path of the archive or directory).
	Name() string
	// Entries lists all entries in scan order. The listing is stable for
	// the lifetime of the source.
	Entries() []Entry
	// Open returns a reader for the entry at the given path. Safe for
	// concurrent use across entries.
	Open(path string) (io.ReadCloser, error)
	// Close releases the underlying container and any temporary state.
	Close() error
}

// OpenSource opens path as a Source, dispatching on its type: a directory,
// a .zip archive, or a .tgz/.tar.gz archive.
func OpenSource(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %s", path)
	}
	if fi.IsDir() {
		return openDir(path)
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return openZip(path)
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return openTar(path)
	}
	return nil, errors.Newf("unsupported source type: %s (expect directory, .zip, .tgz or .tar.gz)", path)
}
