package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Store persists opaque blobs keyed by snowflake id.
type Store interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (*Blob, error)
	Get(ctx context.Context, id snowflake.ID) (*Blob, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
