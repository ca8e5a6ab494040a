package service

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/snappy"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/storage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Evidence scans and logos stay well below this; rendered PDFs are tiny.
const maxBlobSize = 16 << 20

type Store struct {
	log   *zap.Logger
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func New(log *zap.Logger, db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Store {
	return &Store{
		log:   log.Named("storage.store"),
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (s *Store) Put(ctx context.Context, filename, contentType string, data []byte) (*domain.Blob, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyBlob
	}
	if len(data) > maxBlobSize {
		return nil, domain.ErrBlobTooLarge
	}

	filename = strings.TrimSpace(filename)
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Blobs are stored snappy-compressed; SizeBytes keeps the original size.
	blob := &domain.Blob{
		ID:          s.genID.Generate(),
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Data:        snappy.Encode(nil, data),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(blob).Error; err != nil {
		return nil, err
	}
	blob.Data = data
	return blob, nil
}

func (s *Store) Get(ctx context.Context, id snowflake.ID) (*domain.Blob, error) {
	var blob domain.Blob
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := snappy.Decode(nil, blob.Data)
	if err != nil {
		s.log.Error("blob decode", zap.Int64("blob_id", int64(blob.ID)), zap.Error(err))
		return nil, err
	}
	blob.Data = data
	return &blob, nil
}

func (s *Store) Delete(ctx context.Context, id snowflake.ID) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Blob{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrBlobNotFound
	}
	return nil
}
