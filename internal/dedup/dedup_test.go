package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/photovault/internal/logging"
)

func TestHashReader(t *testing.T) {
	content := "the same photo bytes"
	want := sha256.Sum256([]byte(content))

	got, err := HashReader(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHasher_AsWriter(t *testing.T) {
	h := NewHasher()
	_, err := h.Write([]byte("part one "))
	require.NoError(t, err)
	_, err = h.Write([]byte("part two"))
	require.NoError(t, err)

	direct, err := HashReader(strings.NewReader("part one part two"))
	require.NoError(t, err)
	assert.Equal(t, direct, h.Digest(), "chunked writes and one-shot hashing agree")
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index", "dedup.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndex_ReserveFirstWins(t *testing.T) {
	ix := openTestIndex(t)

	accepted, existing, err := ix.Reserve("digest-a", "/out/photos/a.jpg")
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Empty(t, existing)

	accepted, existing, err = ix.Reserve("digest-a", "/out/photos/other.jpg")
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, "/out/photos/a.jpg", existing)
}

func TestIndex_ReserveDistinctDigests(t *testing.T) {
	ix := openTestIndex(t)

	for i := 0; i < 5; i++ {
		accepted, _, err := ix.Reserve(fmt.Sprintf("digest-%d", i), fmt.Sprintf("/out/%d.jpg", i))
		require.NoError(t, err)
		assert.True(t, accepted)
	}

	n, err := ix.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestIndex_ConcurrentReserveSingleWinner(t *testing.T) {
	ix := openTestIndex(t)

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/out/photos/caller-%d.jpg", i)
			accepted, existing, err := ix.Reserve("contested-digest", path)
			if !assert.NoError(t, err) {
				return
			}
			if accepted {
				wins <- path
			} else {
				assert.NotEmpty(t, existing)
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one caller per digest is accepted")

	_, existing, err := ix.Reserve("contested-digest", "/out/late.jpg")
	require.NoError(t, err)
	assert.Equal(t, winners[0], existing, "losers observe the winner's path")
}

func TestIndex_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dedup.db")

	ix, err := OpenIndex(path, logging.NewNop())
	require.NoError(t, err)
	accepted, _, err := ix.Reserve("digest-persist", "/out/p.jpg")
	require.NoError(t, err)
	require.True(t, accepted)
	require.NoError(t, ix.Close())

	ix2, err := OpenIndex(path, logging.NewNop())
	require.NoError(t, err)
	defer ix2.Close()

	accepted, existing, err := ix2.Reserve("digest-persist", "/out/again.jpg")
	require.NoError(t, err)
	assert.False(t, accepted, "re-runs reject previously accepted digests")
	assert.Equal(t, "/out/p.jpg", existing)
}

func TestIndex_ReleaseAllowsRetry(t *testing.T) {
	ix := openTestIndex(t)

	accepted, _, err := ix.Reserve("digest-r", "/out/r.jpg")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, ix.Release("digest-r"))

	accepted, _, err = ix.Reserve("digest-r", "/out/r2.jpg")
	require.NoError(t, err)
	assert.True(t, accepted, "released digest can be reserved again")
}

func TestIndex_UpdatePath(t *testing.T) {
	ix := openTestIndex(t)

	accepted, _, err := ix.Reserve("digest-u", "/out/planned.jpg")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, ix.UpdatePath("digest-u", "/out/actual.heic"))

	_, existing, err := ix.Reserve("digest-u", "/out/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/out/actual.heic", existing)
}
