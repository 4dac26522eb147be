package archive

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// dirSource serves an already-extracted export directory. Entries are
// discovered by a sorted walk so processing order is deterministic.
type dirSource struct {
	root    string
	list    []Entry
	cleanup func() error // non-nil when the directory is a temp extraction
}

func openDir(root string) (*dirSource, error) {
	s := &dirSource{root: root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		s.list = append(s.list, Entry{
			Name:    name,
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan directory %s", root)
	}
	sort.Slice(s.list, func(i, j int) bool { return s.list[i].Path < s.list[j].Path })
	return s, nil
}

func (s *dirSource) Name() string     { return s.root }
func (s *dirSource) Entries() []Entry { return s.list }

func (s *dirSource) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, path))
	if err != nil {
		return nil, errors.Wrapf(err, "open entry %s", path)
	}
	return f, nil
}

func (s *dirSource) Close() error {
	if s.cleanup != nil {
		return s.cleanup()
	}
	return nil
}
