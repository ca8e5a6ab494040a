package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status  Status
	OwnerID *snowflake.ID
	Page    pagination.Pagination
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// FindByIDForUpdate locks the order row for the duration of the
	// surrounding transaction, serializing concurrent mutations.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Order, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, *pagination.PageInfo, error)

	CreateItem(ctx context.Context, db *gorm.DB, item *OrderItem) error
	FindItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) (*OrderItem, error)
	FindItemByProduct(ctx context.Context, db *gorm.DB, orderID, productID snowflake.ID) (*OrderItem, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	UpdateItemFields(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID, fields map[string]any) error
	DeleteItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) error
}
