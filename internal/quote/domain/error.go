package domain

import "errors"

var (
	ErrNotFound         = errors.New("quote not found")
	ErrItemNotFound     = errors.New("quote item not found")
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrPermissionDenied = errors.New("permission denied")
	ErrKindMismatch     = errors.New("item kind does not match quote kind")
	ErrInactiveSubject  = errors.New("catalog subject is inactive")
	ErrNoActiveSlots    = errors.New("no active branding templates")
	ErrSendInProgress   = errors.New("send already in progress")
	ErrRateLimited      = errors.New("rendering rate limit exceeded")
	ErrInvalidTaxPct    = errors.New("tax percentage must be non-negative")
	ErrInvalidStatus    = errors.New("invalid resolution status")
	ErrDocsNotFailed    = errors.New("documents are not in a retriable state")
)
