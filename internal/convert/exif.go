package convert

import (
	"io"

	"github.com/cockroachdb/errors"
)

// writerSkipper drops the first skipCount bytes written to it before
// passing the rest through. It lets us replace the JPEG encoder's SOI
// marker with our own SOI+APP1 prefix.
type writerSkipper struct {
	w         io.Writer
	skipCount int
}

func (w *writerSkipper) Write(data []byte) (int, error) {
	if w.skipCount <= 0 {
		return w.w.Write(data)
	}
	if len(data) < w.skipCount {
		w.skipCount -= len(data)
		return len(data), nil
	}
	skip := w.skipCount
	w.skipCount = 0
	if _, err := w.w.Write(data[skip:]); err != nil {
		return 0, err
	}
	return len(data), nil
}

// newWriterExif writes a JPEG SOI marker and, when exif is non-empty,
// an APP1 segment holding it, then returns a writer that strips the
// SOI the encoder will emit.
func newWriterExif(w io.Writer, exif []byte) (io.Writer, error) {
	soi := []byte{0xff, 0xd8}
	if _, err := w.Write(soi); err != nil {
		return nil, err
	}

	if len(exif) > 0 {
		size := len(exif) + 2
		if size > 0xffff {
			return nil, errors.Newf("exif block too large: %d bytes", len(exif))
		}
		app1 := []byte{0xff, 0xe1, byte(size >> 8), byte(size & 0xff)}
		if _, err := w.Write(app1); err != nil {
			return nil, err
		}
		if _, err := w.Write(exif); err != nil {
			return nil, err
		}
	}

	return &writerSkipper{w: w, skipCount: len(soi)}, nil
}
