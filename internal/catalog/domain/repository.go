package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateProduct(ctx context.Context, db *gorm.DB, product *Product) error
	FindProductByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	UpdateProductFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeleteProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CreateService(ctx context.Context, db *gorm.DB, item *ServiceItem) error
	FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceItem, error)
	ListServices(ctx context.Context, db *gorm.DB, filter ListRequest) ([]ServiceItem, error)
	UpdateServiceFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeleteService(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CreateCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB, kind Kind) ([]Category, error)
	UpdateCategoryFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	DeleteCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountCategoryRefs(ctx context.Context, db *gorm.DB, id snowflake.ID, kind Kind) (int64, error)
}
