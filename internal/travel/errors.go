package travel

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/wayfinder/internal/workflow"
)

// ErrInvalidBody indicates an unreadable or oversized request body.
var ErrInvalidBody = errors.New("invalid request body")

// Response messages kept stable for existing clients.
const (
	msgStarted      = "Flight search orchestration started."
	msgNotFound     = "Instance not found."
	msgMissingID    = "Missing instanceId"
	msgMissingRoute = "Missing instanceId in route."
)

// MapHTTPStatus maps travel and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, workflow.ErrInstanceNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidBody) {
		return http.StatusBadRequest
	}
	if errors.Is(err, workflow.ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
