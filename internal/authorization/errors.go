package authorization

import "errors"

var (
	ErrInvalidActor  = errors.New("invalid actor")
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidAction = errors.New("invalid action")
	ErrForbidden     = errors.New("forbidden")
)
