package domain

import "errors"

var (
	ErrNotFound        = errors.New("catalog subject not found")
	ErrInvalidKind     = errors.New("invalid catalog kind")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidSKU      = errors.New("invalid sku")
	ErrInvalidCode     = errors.New("invalid code")
	ErrInvalidCost     = errors.New("invalid cost")
	ErrDuplicateEntry  = errors.New("duplicate catalog entry")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse   = errors.New("category still referenced")
)
