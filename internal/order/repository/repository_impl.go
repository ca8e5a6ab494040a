package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/order/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	stmt := tx.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if tx.Dialector != nil && tx.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order domain.Order
	err := stmt.Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Order, *pagination.PageInfo, error) {
	pageSize := filter.Page.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != nil {
		stmt = stmt.Where("owner_id = ?", *filter.OwnerID)
	}
	if token := filter.Page.PageToken; token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, nil, err
		}
		if cursor.ID != "" {
			lastID, err := strconv.ParseInt(cursor.ID, 10, 64)
			if err != nil {
				return nil, nil, err
			}
			stmt = stmt.Where("id < ?", lastID)
		}
	}

	var orders []domain.Order
	if err := stmt.Order("id DESC").Limit(pageSize + 1).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	hasMore := len(orders) > pageSize
	if hasMore {
		orders = orders[:pageSize]
	}
	info := &pagination.PageInfo{HasMore: hasMore}
	if hasMore && len(orders) > 0 {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: orders[len(orders)-1].ID.String(),
		})
		if err != nil {
			return nil, nil, err
		}
		info.NextPageToken = token
	}
	return orders, info, nil
}

func (r *repo) CreateItem(ctx context.Context, db *gorm.DB, item *domain.OrderItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := db.WithContext(ctx).Where("order_id = ? AND id = ?", orderID, itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindItemByProduct(ctx context.Context, db *gorm.DB, orderID, productID snowflake.ID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := db.WithContext(ctx).Where("order_id = ? AND product_id = ?", orderID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) UpdateItemFields(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("order_id = ? AND id = ?", orderID, itemID).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) error {
	tx := db.WithContext(ctx).Where("order_id = ? AND id = ?", orderID, itemID).Delete(&domain.OrderItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
