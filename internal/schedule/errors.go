package schedule

import "errors"

// Outcome taxonomy for scheduling operations. Callers test with
// errors.Is; the HTTP layer maps these to status codes at the edge.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("slot already reserved")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)
