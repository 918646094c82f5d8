package repository

import "errors"

// ErrNotFound is returned when a queried entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (username, group slug)
// is violated on insert.
var ErrDuplicate = errors.New("already exists")
