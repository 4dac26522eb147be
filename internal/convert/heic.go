package convert

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
)

// heicConverter decodes Apple HEIC containers and re-encodes them as
// JPEG, carrying the embedded EXIF block across.
type heicConverter struct {
	quality int
}

func newHeicConverter(quality int) *heicConverter {
	return &heicConverter{quality: quality}
}

func (c *heicConverter) Name() string { return "heic" }

func (c *heicConverter) TargetExt() string { return ".jpg" }

func (c *heicConverter) CanConvert(name string) bool {
	switch extOf(name) {
	case ".heic", ".heif":
		return true
	}
	return false
}

func (c *heicConverter) Convert(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "open heic source")
	}
	defer in.Close()

	// EXIF extraction failures are tolerated. The photo is still
	// worth converting without its metadata block.
	exif, err := goheif.ExtractExif(in)
	if err != nil {
		exif = nil
	}
	if _, err := in.Seek(0, 0); err != nil {
		return errors.Wrap(err, "rewind heic source")
	}

	img, err := goheif.Decode(in)
	if err != nil {
		return errors.Wrap(err, "decode heic")
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create jpeg target")
	}
	defer out.Close()

	w, err := newWriterExif(out, exif)
	if err != nil {
		return errors.Wrap(err, "write exif header")
	}
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return errors.Wrap(err, "encode jpeg")
	}
	return out.Close()
}
