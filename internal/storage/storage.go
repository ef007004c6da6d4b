// Package storage holds error kinds shared by every store implementation.
package storage

import "errors"

// ErrUnavailable signals a store timeout or connection failure. Callers
// surface it as 503 and must not retry a create blindly: a timed-out insert
// may still have been persisted, so re-query before retrying.
var ErrUnavailable = errors.New("store unavailable")
