package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/golang/snappy"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/storage/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newStore(t *testing.T) (domain.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Blob{}))
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC))
	return New(zap.NewNop(), db, node, clk), db
}

func TestPutGetRoundTrip(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	payload := bytes.Repeat([]byte("%PDF-1.7 cotizacion "), 64)
	blob, err := store.Put(ctx, "COT-01.pdf", "", payload)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", blob.ContentType)
	require.Equal(t, int64(len(payload)), blob.SizeBytes)
	require.Equal(t, payload, blob.Data)

	// The row holds the compressed form; Get hands back the original.
	var row domain.Blob
	require.NoError(t, db.Where("id = ?", blob.ID).First(&row).Error)
	require.NotEqual(t, payload, row.Data)
	require.Less(t, len(row.Data), len(payload))
	decoded, err := snappy.Decode(nil, row.Data)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	fetched, err := store.Get(ctx, blob.ID)
	require.NoError(t, err)
	require.Equal(t, payload, fetched.Data)
	require.Equal(t, int64(len(payload)), fetched.SizeBytes)
}

func TestPutValidation(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "empty.bin", "", nil)
	require.ErrorIs(t, err, domain.ErrEmptyBlob)

	blob, err := store.Put(ctx, "scan", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "image/png", blob.ContentType)
}

func TestGetAndDeleteMissing(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, snowflake.ID(42))
	require.ErrorIs(t, err, domain.ErrBlobNotFound)

	err = store.Delete(ctx, snowflake.ID(42))
	require.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestDeleteRemovesRow(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	blob, err := store.Put(ctx, "logo.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, blob.ID))
	_, err = store.Get(ctx, blob.ID)
	require.ErrorIs(t, err, domain.ErrBlobNotFound)
}
