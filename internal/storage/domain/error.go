package domain

import "errors"

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrEmptyBlob    = errors.New("blob data is empty")
	ErrBlobTooLarge = errors.New("blob exceeds size limit")
)
