package domain

import "errors"

var (
	ErrNotFound         = errors.New("order not found")
	ErrItemNotFound     = errors.New("order item not found")
	ErrInvalidState     = errors.New("operation not allowed in current order state")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoItems          = errors.New("order has no items")
	ErrEvidenceRequired = errors.New("every item needs evidence before sending")
	ErrItemResolved     = errors.New("order item already resolved")
	ErrReasonRequired   = errors.New("rejection requires a reason")
	ErrInactiveProduct  = errors.New("product is inactive")
)
