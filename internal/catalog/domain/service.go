package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context, req ListRequest) ([]Product, error)
	UpdateProduct(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id snowflake.ID) error

	CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceItem, error)
	GetService(ctx context.Context, id snowflake.ID) (*ServiceItem, error)
	ListServices(ctx context.Context, req ListRequest) ([]ServiceItem, error)
	UpdateService(ctx context.Context, id snowflake.ID, req UpdateServiceRequest) (*ServiceItem, error)
	DeleteService(ctx context.Context, id snowflake.ID) error

	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	ListCategories(ctx context.Context, kind Kind) ([]Category, error)
	UpdateCategory(ctx context.Context, id snowflake.ID, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id snowflake.ID) error

	// Resolve returns the display snapshot quote items capture at add time.
	Resolve(ctx context.Context, kind Kind, id snowflake.ID) (*Subject, error)
}

type ListRequest struct {
	Name       string
	CategoryID *snowflake.ID
	Active     *bool
	SortBy     string
	OrderBy    string
}

type CreateProductRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Cost        decimal.Decimal `json:"cost"`
	CategoryID  *snowflake.ID   `json:"category_id"`
	Active      *bool           `json:"active"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit"`
	Cost        *decimal.Decimal `json:"cost"`
	CategoryID  *snowflake.ID    `json:"category_id"`
	Active      *bool            `json:"active"`
}

type CreateServiceRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	CategoryID  *snowflake.ID   `json:"category_id"`
	Active      *bool           `json:"active"`
}

type UpdateServiceRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
	CategoryID  *snowflake.ID    `json:"category_id"`
	Active      *bool            `json:"active"`
}

type CreateCategoryRequest struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}
