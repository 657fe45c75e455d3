package storage

import "errors"

// ErrNotFound marks lookups for records that do not exist. Implementations
// wrap it so callers can branch with errors.Is.
var ErrNotFound = errors.New("not found")
