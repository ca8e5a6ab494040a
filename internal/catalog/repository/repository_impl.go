package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var listSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"cost":       true,
}

func (r *repo) CreateProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindProductByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListProducts(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	stmt = applyListFilter(stmt, filter)
	err := stmt.Find(&items).Error
	return items, err
}

func (r *repo) UpdateProductFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) CreateService(ctx context.Context, db *gorm.DB, item *domain.ServiceItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceItem, error) {
	var item domain.ServiceItem
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.ServiceItem, error) {
	var items []domain.ServiceItem
	stmt := db.WithContext(ctx).Model(&domain.ServiceItem{})
	stmt = applyListFilter(stmt, filter)
	err := stmt.Find(&items).Error
	return items, err
}

func (r *repo) UpdateServiceFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.ServiceItem{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteService(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ServiceItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) CreateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB, kind domain.Kind) ([]domain.Category, error) {
	var items []domain.Category
	stmt := db.WithContext(ctx).Model(&domain.Category{})
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	err := stmt.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repo) UpdateCategoryFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *repo) DeleteCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *repo) CountCategoryRefs(ctx context.Context, db *gorm.DB, id snowflake.ID, kind domain.Kind) (int64, error) {
	var count int64
	var err error
	switch kind {
	case domain.KindService:
		err = db.WithContext(ctx).Model(&domain.ServiceItem{}).Where("category_id = ?", id).Count(&count).Error
	default:
		err = db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", id).Count(&count).Error
	}
	return count, err
}

func applyListFilter(stmt *gorm.DB, filter domain.ListRequest) *gorm.DB {
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.CategoryID != nil {
		stmt = stmt.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	return option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, listSortColumns)).Apply(stmt)
}
