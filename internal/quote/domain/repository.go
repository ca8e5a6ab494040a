package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows quote listings.
type ListFilter struct {
	Status  Status
	OwnerID *snowflake.ID
	Page    pagination.Pagination
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quote, error)
	// FindByIDForUpdate locks the quote row for the duration of the
	// surrounding transaction, serializing concurrent mutations.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Quote, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Quote, *pagination.PageInfo, error)

	CreateItems(ctx context.Context, db *gorm.DB, items []QuoteItem) error
	FindItem(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) (*QuoteItem, error)
	ListItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]QuoteItem, error)
	UpdateItemFields(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID, fields map[string]any) error
	DeleteItem(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) error
	MaxItemPosition(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) (int, error)

	ReplaceDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID, docs []QuoteDocument) error
	ListDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]QuoteDocument, error)
	DeleteDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]QuoteDocument, error)
}
