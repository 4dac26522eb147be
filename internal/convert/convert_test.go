package convert

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_For(t *testing.T) {
	r := NewRegistry(95)

	tests := []struct {
		name string
		want string
	}{
		{"IMG_0001.HEIC", "heic"},
		{"IMG_0001.heif", "heic"},
		{"old.bmp", "raster"},
		{"old.BMP", "raster"},
		{"IMG_0001.JPG", ""},
		{"clip.mp4", ""},
		{"photo.png", ""},
		// TIFF EXIF cannot be carried into a JPEG, so TIFF is kept as-is.
		{"scan.tiff", ""},
		{"scan.TIF", ""},
	}
	for _, tt := range tests {
		c := r.For(tt.name)
		if tt.want == "" {
			assert.Nil(t, c, tt.name)
			continue
		}
		require.NotNil(t, c, tt.name)
		assert.Equal(t, tt.want, c.Name(), tt.name)
		assert.Equal(t, ".jpg", c.TargetExt())
	}
}

func TestRasterConverter_ProducesJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	dst := filepath.Join(dir, "out.tmp")

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	require.NoError(t, imaging.Save(img, src))

	c := newRasterConverter(80)
	require.NoError(t, c.Convert(src, dst))

	out, err := os.Open(dst)
	require.NoError(t, err)
	defer out.Close()
	_, format, err := image.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestRasterConverter_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	c := newRasterConverter(80)
	err := c.Convert(src, filepath.Join(dir, "out.tmp"))
	assert.Error(t, err)
}

func TestWriterExif_SplicesApp1(t *testing.T) {
	var buf bytes.Buffer
	exif := []byte("Exif\x00\x00fake-tiff-payload")

	w, err := newWriterExif(&buf, exif)
	require.NoError(t, err)

	// Simulate an encoder that emits SOI followed by scan data.
	_, err = w.Write([]byte{0xff, 0xd8, 0xaa, 0xbb})
	require.NoError(t, err)

	got := buf.Bytes()
	require.True(t, len(got) > 4+len(exif))
	assert.Equal(t, []byte{0xff, 0xd8}, got[:2], "starts with SOI")
	assert.Equal(t, []byte{0xff, 0xe1}, got[2:4], "APP1 marker follows")
	size := int(got[4])<<8 | int(got[5])
	assert.Equal(t, len(exif)+2, size)
	assert.Equal(t, exif, got[6:6+len(exif)])
	assert.Equal(t, []byte{0xaa, 0xbb}, got[6+len(exif):], "encoder SOI stripped")
}

// minimalExif builds a valid APP1 payload: the Exif header followed by
// a little-endian TIFF whose IFD0 holds a single DateTime tag.
func minimalExif(datetime string) []byte {
	value := append([]byte(datetime), 0)
	tiff := []byte{
		'I', 'I', 0x2a, 0x00, // little-endian TIFF magic
		0x08, 0x00, 0x00, 0x00, // IFD0 at offset 8
		0x01, 0x00, // one entry
		0x32, 0x01, // tag 0x0132 DateTime
		0x02, 0x00, // type ASCII
		byte(len(value)), 0x00, 0x00, 0x00,
		0x1a, 0x00, 0x00, 0x00, // value at offset 26
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	tiff = append(tiff, value...)
	return append([]byte("Exif\x00\x00"), tiff...)
}

func TestWriterExif_SurvivesEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	w, err := newWriterExif(&buf, minimalExif("2021:06:14 15:30:42"))
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 120, A: 255})
	require.NoError(t, imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(90)))

	x, err := exif.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err, "spliced output is a valid EXIF-bearing JPEG")
	tag, err := x.Get(exif.DateTime)
	require.NoError(t, err)
	val, err := tag.StringVal()
	require.NoError(t, err)
	assert.Equal(t, "2021:06:14 15:30:42", val)

	decoded, format, err := image.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}

func TestWriterExif_NoExifPassthrough(t *testing.T) {
	var buf bytes.Buffer
	w, err := newWriterExif(&buf, nil)
	require.NoError(t, err)

	// SOI split across two writes still gets skipped.
	_, err = w.Write([]byte{0xff})
	require.NoError(t, err)
	_, err = w.Write([]byte{0xd8, 0x01, 0x02})
	require.NoError(t, err)

	assert.Equal(t, []byte{0xff, 0xd8, 0x01, 0x02}, buf.Bytes())
}
