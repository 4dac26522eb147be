package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// openTar extracts a gzipped tarball into a temporary directory and serves
// it as a dirSource. Tar streams are not byte-addressable, so a one-pass
// extraction up front is what makes open-by-name possible later; the temp
// tree is removed when the source is closed.
func openTar(path string) (*dirSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read gzip header of %s", path)
	}
	defer gz.Close()

	tmp, err := os.MkdirTemp("", "photovault-extract-*")
	if err != nil {
		return nil, errors.Wrap(err, "create extraction directory")
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			os.RemoveAll(tmp)
			return nil, errors.Wrapf(err, "read tar stream of %s", path)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		target, err := safeJoin(tmp, hdr.Name)
		if err != nil {
			os.RemoveAll(tmp)
			return nil, err
		}
		if err := extractFile(tr, target, hdr.ModTime); err != nil {
			os.RemoveAll(tmp)
			return nil, errors.Wrapf(err, "extract %s", hdr.Name)
		}
	}

	src, err := openDir(tmp)
	if err != nil {
		os.RemoveAll(tmp)
		return nil, err
	}
	src.root = tmp
	src.cleanup = func() error { return os.RemoveAll(tmp) }
	return src, nil
}

// safeJoin joins name under root, rejecting path traversal out of root.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.Clean("/"+name))
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", errors.Newf("archive entry escapes extraction root: %s", name)
	}
	return target, nil
}

func extractFile(r io.Reader, target string, modTime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if !modTime.IsZero() {
		// Preserve the archive's mtime so the filesystem timestamp
		// fallback tier stays meaningful after extraction.
		_ = os.Chtimes(target, modTime, modTime)
	}
	return nil
}
