package convert

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"
)

// rasterConverter re-encodes uncompressed BMP rasters as JPEG. The BMP
// container carries no embedded metadata, so nothing is lost in the
// rewrite. TIFF is deliberately not handled: its EXIF cannot be
// carried into a JPEG APP1 segment without rebuilding the TIFF IFD
// structure, so TIFF files pass through unconverted instead of losing
// their metadata.
type rasterConverter struct {
	quality int
}

func newRasterConverter(quality int) *rasterConverter {
	return &rasterConverter{quality: quality}
}

func (c *rasterConverter) Name() string { return "raster" }

func (c *rasterConverter) TargetExt() string { return ".jpg" }

func (c *rasterConverter) CanConvert(name string) bool {
	return extOf(name) == ".bmp"
}

func (c *rasterConverter) Convert(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return errors.Wrap(err, "decode raster image")
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create jpeg target")
	}
	defer out.Close()

	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return errors.Wrap(err, "encode jpeg")
	}
	return out.Close()
}
