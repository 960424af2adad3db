package alias

import "errors"

var (
	// ErrAliasNotFound is returned when no alias exists for the given text.
	ErrAliasNotFound = errors.New("alias: not found")

	// ErrInvalidAlias is returned when alias text or device ID is empty.
	ErrInvalidAlias = errors.New("alias: invalid")
)
