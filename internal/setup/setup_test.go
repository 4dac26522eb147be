package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/photovault/internal/dedup"
	"github.com/backmassage/photovault/internal/logging"
	"github.com/backmassage/photovault/internal/organize"
)

func TestInit_CreatesTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	layout := organize.Layout{Root: root}

	require.NoError(t, Init(layout, logging.NewNop()))

	for _, sub := range layout.Subdirs() {
		info, err := os.Stat(filepath.Join(root, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir(), sub)
	}
	assert.FileExists(t, filepath.Join(root, "README.md"))
}

func TestInit_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	layout := organize.Layout{Root: root}

	require.NoError(t, Init(layout, logging.NewNop()))

	// A customized README survives a second init.
	readme := filepath.Join(root, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("mine"), 0o644))
	require.NoError(t, Init(layout, logging.NewNop()))

	got, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(got))
}

func TestInit_RejectsFileDestination(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	err := Init(organize.Layout{Root: root}, logging.NewNop())
	assert.ErrorIs(t, err, ErrDestinationIsFile)
}

func TestPreflight(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	layout := organize.Layout{Root: root}

	require.NoError(t, Preflight(layout, 0, logging.NewNop()))
	assert.DirExists(t, layout.TempDir())
}

func TestCollectStatus(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	layout := organize.Layout{Root: root}
	require.NoError(t, Init(layout, logging.NewNop()))

	byYear := filepath.Join(layout.PhotosDir(), "2021")
	require.NoError(t, os.MkdirAll(byYear, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(byYear, "a.jpg"), []byte("1234"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layout.PhotosDir(), "b.jpg"), []byte("12"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layout.VideosDir(), "c.mp4"), []byte("123"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layout.MetadataDir(), "b.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layout.DuplicatesDir(), "d.json"), []byte("{}"), 0o644))

	ix, err := dedup.OpenIndex(layout.IndexPath(), logging.NewNop())
	require.NoError(t, err)
	_, _, err = ix.Reserve("digest-1", "/x")
	require.NoError(t, err)
	_, _, err = ix.Reserve("digest-2", "/y")
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	st, err := CollectStatus(layout, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Photos, "year subdirectories are included")
	assert.Equal(t, 1, st.Videos)
	assert.Equal(t, 1, st.Metadata)
	assert.Equal(t, 0, st.Originals)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, int64(9), st.MediaBytes)
	assert.Equal(t, int64(2), st.IndexEntries)
}

func TestCollectStatus_RequiresInitializedDestination(t *testing.T) {
	layout := organize.Layout{Root: filepath.Join(t.TempDir(), "nope")}
	_, err := CollectStatus(layout, logging.NewNop())
	assert.Error(t, err)
}
