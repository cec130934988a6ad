package prompts

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("prompt not found")
	ErrDuplicate      = errors.New("prompt name already exists")
	ErrInvalidID      = errors.New("invalid prompt id")
	ErrInvalidStage   = errors.New("stage must be search, interpret, or summarize")
	ErrInvalidCommand = errors.New("invalid prompt")
)

// MapHTTPStatus maps prompt domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrInvalidCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
