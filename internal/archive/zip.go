package archive

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// zipSource reads entries straight out of a ZIP archive without extracting.
// zip readers support concurrent Open across files, so workers can stream
// entries in parallel.
type zipSource struct {
	path   string
	rc     *zip.ReadCloser
	list   []Entry
	byPath map[string]*zip.File
}

func openZip(path string) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open zip %s", path)
	}

	s := &zipSource{
		path:   path,
		rc:     rc,
		byPath: make(map[string]*zip.File),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, ".") {
			continue
		}
		s.list = append(s.list, Entry{
			Name:    name,
			Path:    f.Name,
			Size:    int64(f.UncompressedSize64),
			ModTime: f.Modified,
		})
		s.byPath[f.Name] = f
	}
	return s, nil
}

func (s *zipSource) Name() string     { return s.path }
func (s *zipSource) Entries() []Entry { return s.list }

func (s *zipSource) Open(path string) (io.ReadCloser, error) {
	f, ok := s.byPath[path]
	if !ok {
		return nil, errors.Newf("no such entry in %s: %s", s.path, path)
	}
	return f.Open()
}

func (s *zipSource) Close() error { return s.rc.Close() }
