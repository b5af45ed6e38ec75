// Package apperr holds sentinel errors shared across docgraph packages.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrUnresolvableLink = errors.New("unresolvable link")
)
