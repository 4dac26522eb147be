package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "takeout.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range sortedKeys(files) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeTgz(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "takeout.tgz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, name := range sortedKeys(files) {
		content := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			ModTime:  time.Date(2023, 6, 15, 14, 30, 22, 0, time.UTC),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return path
}

func readEntry(t *testing.T, s Source, path string) string {
	t.Helper()
	rc, err := s.Open(path)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestOpenSource_Zip(t *testing.T) {
	path := writeZip(t, t.TempDir(), map[string]string{
		"Takeout/Photos/IMG_0001.JPG":      "jpegbytes",
		"Takeout/Photos/IMG_0001.JPG.json": `{"title":"IMG_0001.JPG"}`,
		"Takeout/Photos/albumdir/":         "",
	})

	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	entries := src.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "IMG_0001.JPG", entries[0].Name)
	assert.Equal(t, "Takeout/Photos/IMG_0001.JPG", entries[0].Path)
	assert.Equal(t, int64(9), entries[0].Size)

	assert.Equal(t, "jpegbytes", readEntry(t, src, entries[0].Path))
}

func TestOpenSource_Tgz_ExtractsAndCleansUp(t *testing.T) {
	path := writeTgz(t, t.TempDir(), map[string]string{
		"Takeout/Photos/IMG_0002.JPG":      "mediabytes",
		"Takeout/Photos/IMG_0002.JPG.json": `{"title":"IMG_0002.JPG"}`,
	})

	src, err := OpenSource(path)
	require.NoError(t, err)

	entries := src.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "mediabytes", readEntry(t, src, entries[0].Path))
	assert.False(t, entries[0].ModTime.IsZero(), "tar mtime survives extraction")

	root := src.Name()
	require.NoError(t, src.Close())
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "temp extraction is removed on close")
}

func TestOpenSource_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "album", "b.jpg"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	src, err := OpenSource(dir)
	require.NoError(t, err)
	defer src.Close()

	entries := src.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a.jpg", entries[0].Name, "deterministic sorted order")
	assert.Equal(t, "b.jpg", entries[1].Name)
}

func TestOpenSource_RejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenSource(path)
	assert.Error(t, err)
}

func TestOpenSource_Missing(t *testing.T) {
	_, err := OpenSource(filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestMediaKind(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		isMedia bool
	}{
		{"IMG_0001.JPG", KindImage, true},
		{"IMG_0001.heic", KindImage, true},
		{"clip.MOV", KindVideo, true},
		{"clip.mp4", KindVideo, true},
		{"IMG_0001.JPG.json", "", false},
		{"archive_browser.html", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := MediaKind(tt.name)
			assert.Equal(t, tt.isMedia, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestIsSidecar(t *testing.T) {
	assert.True(t, IsSidecar("IMG_0001.JPG.json"))
	assert.True(t, IsSidecar("metadata.JSON"))
	assert.False(t, IsSidecar("IMG_0001.JPG"))
}
