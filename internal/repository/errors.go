package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type rowScanner interface {
	Scan(dest ...interface{}) error
}
