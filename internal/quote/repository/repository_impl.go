package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Create(quote).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Quote, error) {
	stmt := tx.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if tx.Dialector != nil && tx.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var quote domain.Quote
	err := stmt.Where("id = ?", id).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).Model(&domain.Quote{}).Where("id = ?", id).Updates(fields)
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
		if err := tx.Where("quote_id = ?", id).Delete(&domain.QuoteDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", id).Delete(&domain.QuoteItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Quote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Quote, *pagination.PageInfo, error) {
	pageSize := filter.Page.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	stmt := db.WithContext(ctx).Model(&domain.Quote{})
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

	var quotes []domain.Quote
	if err := stmt.Order("id DESC").Limit(pageSize + 1).Find(&quotes).Error; err != nil {
		return nil, nil, err
	}

	hasMore := len(quotes) > pageSize
	if hasMore {
		quotes = quotes[:pageSize]
	}
	info := &pagination.PageInfo{HasMore: hasMore}
	if hasMore && len(quotes) > 0 {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: quotes[len(quotes)-1].ID.String(),
		})
		if err != nil {
			return nil, nil, err
		}
		info.NextPageToken = token
	}
	return quotes, info, nil
}

func (r *repo) CreateItems(ctx context.Context, db *gorm.DB, items []domain.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) (*domain.QuoteItem, error) {
	var item domain.QuoteItem
	err := db.WithContext(ctx).Where("quote_id = ? AND id = ?", quoteID, itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]domain.QuoteItem, error) {
	var items []domain.QuoteItem
	err := db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("position ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) UpdateItemFields(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID, fields map[string]any) error {
	tx := db.WithContext(ctx).
		Model(&domain.QuoteItem{}).
		Where("quote_id = ? AND id = ?", quoteID, itemID).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, quoteID, itemID snowflake.ID) error {
	tx := db.WithContext(ctx).Where("quote_id = ? AND id = ?", quoteID, itemID).Delete(&domain.QuoteItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *repo) MaxItemPosition(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) (int, error) {
	var max *int
	err := db.WithContext(ctx).
		Model(&domain.QuoteItem{}).
		Where("quote_id = ?", quoteID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *repo) ReplaceDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID, docs []domain.QuoteDocument) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quoteID).Delete(&domain.QuoteDocument{}).Error; err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		return tx.Create(&docs).Error
	})
}

func (r *repo) ListDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]domain.QuoteDocument, error) {
	var docs []domain.QuoteDocument
	err := db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("slot ASC").
		Find(&docs).Error
	return docs, err
}

func (r *repo) DeleteDocuments(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) ([]domain.QuoteDocument, error) {
	docs, err := r.ListDocuments(ctx, db, quoteID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if err := db.WithContext(ctx).Where("quote_id = ?", quoteID).Delete(&domain.QuoteDocument{}).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
