package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/hetulpatel/lotbidder/internal/config"
	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/storage"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	blobs, err := OpenStore(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "bidder.db")})
	assert.NoError(t, err)
	defer blobs.Close()

	assert.NoError(t, blobs.Save(ctx, storage.KeyProcessedIDs, []byte(`["L1"]`)))
	got, ok, err := blobs.Load(ctx, storage.KeyProcessedIDs)
	assert.NoError(t, err)
	check.True(t, ok)
	check.Equal(t, `["L1"]`, string(got))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	blobs, err := OpenStore(context.Background(), config.StoreConfig{Driver: "mongo"})
	check.Error(t, err)
	check.Nil(t, blobs)
}

func TestNewWiresWithoutOptionalServices(t *testing.T) {
	cfg := config.Config{
		Token:   "t",
		BoardID: 1,
		Store:   config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "bidder.db")},
	}
	a, err := New(context.Background(), cfg, logging.Nop(), Options{Publish: true})
	assert.NoError(t, err)
	assert.NotNil(t, a.Processor)
	check.NotNil(t, a.Sink)
	check.Equal(t, 0, len(a.Processor.Processed()))
	check.NoError(t, a.Close())
}
