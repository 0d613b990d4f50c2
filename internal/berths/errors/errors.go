package errors

import "errors"

var (
	ErrNotFound = errors.New("berth not found")

	ErrDuplicate = errors.New("berth number already exists")
)
