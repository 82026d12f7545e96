package domain

import "errors"

// Error kinds surfaced by the lifecycle service. Callers (HTTP layer, event
// ingestors) classify with errors.Is; everything else is an internal error.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
