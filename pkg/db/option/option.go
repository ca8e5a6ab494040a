// Package option provides composable query modifiers for gorm statements.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Option mutates a gorm statement before execution.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Apply runs every option in order.
func Apply(db *gorm.DB, opts ...Option) *gorm.DB {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		db = opt.Apply(db)
	}
	return db
}

// WithSortBy orders the statement by a pre-validated expression.
func WithSortBy(expr string) Option {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(expr) == "" {
			return db
		}
		return db.Order(expr)
	})
}

// WithQuerySortBy builds an ORDER BY expression from user input, restricted
// to an allow-list of columns. Unknown columns fall back to created_at.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) string {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if column == "" || !allowed[column] {
		column = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(orderBy), "desc") {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

// WithLimit caps the result set when limit is positive.
func WithLimit(limit int) Option {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
