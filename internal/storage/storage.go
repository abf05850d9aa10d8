package storage

import "github.com/pkg/errors"

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrConflict       = errors.New("entity already exists")
)
