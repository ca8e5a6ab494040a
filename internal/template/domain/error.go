package domain

import "errors"

var (
	ErrNotFound      = errors.New("template not found")
	ErrInvalidSlot   = errors.New("invalid template slot")
	ErrSlotTaken     = errors.New("template slot already taken")
	ErrInvalidName   = errors.New("invalid template name")
	ErrInvalidAccent = errors.New("invalid accent color")
)
