// Package store implements the gorm-backed collaborators of the bot core:
// session store, ticket store and role directory.
package store

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")
