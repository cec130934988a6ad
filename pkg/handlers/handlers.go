// Package handlers provides JSON response helpers shared by domain HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as an ErrorBody with the given status code.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondMessage(w, logger, status, err.Error())
}

// RespondMessage logs msg and writes it as an ErrorBody with the given status code.
// Server errors are logged at error level, client errors at warn.
func RespondMessage(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", msg)
	} else {
		logger.Warn("request rejected", "status", status, "error", msg)
	}
	RespondJSON(w, status, ErrorBody{Error: msg})
}
