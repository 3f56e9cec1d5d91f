//go:build bleve

package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pders01/reels/internal/storage"
)

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	store := seededStore(t)

	idxPath := filepath.Join(t.TempDir(), "index.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	res, err := eng.Search("kickflip", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "s1:1", res[0].Reel.ID, "title match outranks caption match")
	require.Equal(t, "s1", res[0].Source.ID)

	res, err = eng.Search("nonna", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestBleveEngineFollowsUpdates(t *testing.T) {
	store := seededStore(t)

	eng, err := NewBleveEngine(store, filepath.Join(t.TempDir(), "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	before, err := eng.DocCount()
	require.NoError(t, err)
	require.Equal(t, 5, before)

	src := &storage.Source{ID: "s3", Title: "Surf"}
	reel := &storage.Reel{ID: "s3:1", SourceID: "s3", Title: "Barrel at dawn"}
	require.NoError(t, store.SaveSource(src))
	require.NoError(t, store.SaveReels([]*storage.Reel{reel}))
	eng.OnReelsUpdated(src, []*storage.Reel{reel})

	res, err := eng.Search("barrel", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	removed, err := store.DeleteSource("s3")
	require.NoError(t, err)
	eng.OnSourceDeleted("s3", removed)

	res, err = eng.Search("barrel", 10)
	require.NoError(t, err)
	require.Empty(t, res)

	after, err := eng.DocCount()
	require.NoError(t, err)
	require.Equal(t, before, after)
}
