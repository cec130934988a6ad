package travel

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/pkg/handlers"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
	"github.com/JaimeStill/wayfinder/pkg/routes"
)

const maxPayloadSize = 64 << 10

// Handler provides HTTP endpoints for travel orchestrations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	basePath   string
}

// NewHandler creates a Handler. basePath is the mount prefix of the API module
// and is used to build absolute status URIs.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	basePath string,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "travel"),
		pagination: pagination,
		basePath:   strings.TrimSuffix(basePath, "/"),
	}
}

// Routes returns the route group definition for travel endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/travel",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/run", Handler: h.Run},
			{Method: "POST", Pattern: "/choice/{id}", Handler: h.Choose},
			{Method: "POST", Pattern: "/choice", Handler: h.missing(msgMissingRoute)},
			{Method: "POST", Pattern: "/choice/", Handler: h.missing(msgMissingRoute)},
			{Method: "GET", Pattern: "/status/{id}", Handler: h.Status},
			{Method: "GET", Pattern: "/status", Handler: h.missing(msgMissingID)},
			{Method: "GET", Pattern: "/status/", Handler: h.missing(msgMissingID)},
			{Method: "GET", Pattern: "/instances", Handler: h.List},
		},
	}
}

// Run starts an orchestration. The raw request body is the initial prompt
// and may be empty.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	prompt, err := readPayload(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	inst, err := h.sys.Run(r.Context(), prompt)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, RunResponse{
		Message:           msgStarted,
		InstanceID:        inst.ID.String(),
		StatusQueryGetURI: h.statusURI(r, inst.ID),
	})
}

// Choose raises the reviewer payload in the body as the decision signal.
func (h *Handler) Choose(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondMessage(w, h.logger, http.StatusNotFound, msgNotFound)
		return
	}

	payload, err := readPayload(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Choose(r.Context(), id, payload); err != nil {
		h.respondLookup(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Status reports the projected status of an instance.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondMessage(w, h.logger, http.StatusNotFound, msgNotFound)
		return
	}

	status, err := h.sys.Status(r.Context(), id)
	if err != nil {
		h.respondLookup(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

// List returns a paginated list of instances with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) missing(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondMessage(w, h.logger, http.StatusBadRequest, msg)
	}
}

func (h *Handler) respondLookup(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status == http.StatusNotFound {
		handlers.RespondMessage(w, h.logger, status, msgNotFound)
		return
	}
	handlers.RespondError(w, h.logger, status, err)
}

func (h *Handler) statusURI(r *http.Request, id uuid.UUID) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s/travel/status/%s", scheme, r.Host, h.basePath, id)
}

func readPayload(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return string(data), nil
}
