package presenter

import "errors"

var (
	ErrNotFound      = errors.New("presenter not found")
	ErrAlreadyExists = errors.New("presenter already connected")
)
