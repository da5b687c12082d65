package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/hetulpatel/lotbidder/internal/storage"
)

var _ storage.BlobStore = (*Store)(nil)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "bidder.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t)
	blob, ok, err := s.Load(context.Background(), "nope")
	assert.NoError(t, err)
	check.False(t, ok)
	check.Equal(t, 0, len(blob))
}

func TestSaveOverwrites(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	assert.NoError(t, s.Save(ctx, storage.KeyProcessedIDs, []byte(`["L1"]`)))
	assert.NoError(t, s.Save(ctx, storage.KeyProcessedIDs, []byte(`["L1","L2"]`)))

	blob, ok, err := s.Load(ctx, storage.KeyProcessedIDs)
	assert.NoError(t, err)
	assert.True(t, ok)
	check.Equal(t, `["L1","L2"]`, string(blob))

	keys, err := s.Keys(ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, len(keys))
	check.False(t, keys[storage.KeyProcessedIDs].IsZero())
}

func TestDeleteAndClear(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	assert.NoError(t, s.Save(ctx, "a", []byte("1")))
	assert.NoError(t, s.Save(ctx, "b", []byte("2")))
	assert.NoError(t, s.Delete(ctx, "a"))
	assert.NoError(t, s.Delete(ctx, "missing"))

	_, ok, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	check.False(t, ok)

	assert.NoError(t, s.ClearTables(ctx))
	_, ok, err = s.Load(ctx, "b")
	assert.NoError(t, err)
	check.False(t, ok)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidder.db")
	ctx := context.Background()

	s, err := Open(path)
	assert.NoError(t, err)
	assert.NoError(t, s.Save(ctx, "k", []byte("v")))
	assert.NoError(t, s.Close())

	s, err = Open(path)
	assert.NoError(t, err)
	defer s.Close()
	blob, ok, err := s.Load(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	check.Equal(t, "v", string(blob))
	check.Equal(t, path, s.Path())
}
