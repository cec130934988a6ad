package travel_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/wayfinder/internal/travel"
	"github.com/JaimeStill/wayfinder/internal/workflow"
	"github.com/JaimeStill/wayfinder/pkg/lifecycle"
	"github.com/JaimeStill/wayfinder/pkg/pagination"
	"github.com/JaimeStill/wayfinder/pkg/routes"
)

var sampleID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

type mockSystem struct {
	runFn    func(ctx context.Context, prompt string) (*workflow.Instance, error)
	chooseFn func(ctx context.Context, id uuid.UUID, payload string) error
	statusFn func(ctx context.Context, id uuid.UUID) (*workflow.Status, error)
	listFn   func(ctx context.Context, page pagination.PageRequest, filters travel.Filters) (*pagination.PageResult[travel.Summary], error)
}

func (m *mockSystem) Handler(basePath string) *travel.Handler {
	return newTestHandler(m, basePath)
}

func (m *mockSystem) Run(ctx context.Context, prompt string) (*workflow.Instance, error) {
	return m.runFn(ctx, prompt)
}

func (m *mockSystem) Choose(ctx context.Context, id uuid.UUID, payload string) error {
	return m.chooseFn(ctx, id, payload)
}

func (m *mockSystem) Status(ctx context.Context, id uuid.UUID) (*workflow.Status, error) {
	return m.statusFn(ctx, id)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters travel.Filters) (*pagination.PageResult[travel.Summary], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Start(lc *lifecycle.Coordinator) error { return nil }

func newTestHandler(sys travel.System, basePath string) *travel.Handler {
	return travel.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		basePath,
	)
}

func setupMux(h *travel.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHandlerRun(t *testing.T) {
	var captured string
	sys := &mockSystem{
		runFn: func(_ context.Context, prompt string) (*workflow.Instance, error) {
			captured = prompt
			return &workflow.Instance{ID: sampleID}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, "/api"))

	t.Run("accepted with status uri", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "http://travel.example.com/travel/run", strings.NewReader("NYC to LA tomorrow"))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if captured != "NYC to LA tomorrow" {
			t.Errorf("prompt = %q", captured)
		}

		var body travel.RunResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != "Flight search orchestration started." {
			t.Errorf("message = %q", body.Message)
		}
		if body.InstanceID != sampleID.String() {
			t.Errorf("instanceId = %q", body.InstanceID)
		}
		want := "http://travel.example.com/api/travel/status/" + sampleID.String()
		if body.StatusQueryGetURI != want {
			t.Errorf("statusQueryGetUri = %q, want %q", body.StatusQueryGetURI, want)
		}
	})

	t.Run("empty prompt allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/travel/run", nil))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if captured != "" {
			t.Errorf("prompt = %q, want empty", captured)
		}
	})

	t.Run("forwarded proto", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "http://travel.example.com/travel/run", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		mux.ServeHTTP(rec, req)

		var body travel.RunResponse
		json.NewDecoder(rec.Body).Decode(&body)
		if !strings.HasPrefix(body.StatusQueryGetURI, "https://travel.example.com/api/") {
			t.Errorf("statusQueryGetUri = %q", body.StatusQueryGetURI)
		}
	})
}

func TestHandlerChoose(t *testing.T) {
	var gotID uuid.UUID
	var gotPayload string
	sys := &mockSystem{
		chooseFn: func(_ context.Context, id uuid.UUID, payload string) error {
			if id != sampleID {
				return workflow.ErrInstanceNotFound
			}
			gotID, gotPayload = id, payload
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys, ""))

	t.Run("delivers payload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/travel/choice/"+sampleID.String(), strings.NewReader("2")))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", rec.Body.String())
		}
		if gotID != sampleID || gotPayload != "2" {
			t.Errorf("got (%s, %q)", gotID, gotPayload)
		}
	})

	tests := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"missing id", "/travel/choice", http.StatusBadRequest, "Missing instanceId in route."},
		{"missing id trailing slash", "/travel/choice/", http.StatusBadRequest, "Missing instanceId in route."},
		{"invalid id", "/travel/choice/not-a-uuid", http.StatusNotFound, "Instance not found."},
		{"unknown id", "/travel/choice/" + uuid.NewString(), http.StatusNotFound, "Instance not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", tt.path, strings.NewReader("1")))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got != tt.message {
				t.Errorf("error = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestHandlerStatus(t *testing.T) {
	input := "NYC to LA tomorrow"
	sys := &mockSystem{
		statusFn: func(_ context.Context, id uuid.UUID) (*workflow.Status, error) {
			if id != sampleID {
				return nil, workflow.ErrInstanceNotFound
			}
			return &workflow.Status{
				InstanceID:     id.String(),
				RuntimeStatus:  workflow.RuntimeCompleted,
				WorkflowStatus: "Flight booked successfully at 2025-06-01T12:00:00",
				Input:          &input,
				Output:         &workflow.Output{Flight: workflow.Option{FlightNumber: "DL200"}},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, ""))

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/travel/status/"+sampleID.String(), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["runtimeStatus"] != "completed" {
			t.Errorf("runtimeStatus = %v", body["runtimeStatus"])
		}
		if body["instanceId"] != sampleID.String() {
			t.Errorf("instanceId = %v", body["instanceId"])
		}
		if _, ok := body["failureDetails"]; ok {
			t.Error("failureDetails should be omitted on success")
		}
	})

	tests := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"missing id", "/travel/status", http.StatusBadRequest, "Missing instanceId"},
		{"unknown id", "/travel/status/" + uuid.NewString(), http.StatusNotFound, "Instance not found."},
		{"invalid id", "/travel/status/abc", http.StatusNotFound, "Instance not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got != tt.message {
				t.Errorf("error = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	var captured travel.Filters
	var capturedPage pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters travel.Filters) (*pagination.PageResult[travel.Summary], error) {
			captured, capturedPage = filters, page
			result := pagination.NewPageResult([]travel.Summary{{ID: sampleID, State: workflow.StateAwaitingDecision}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys, ""))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/travel/instances?state=awaiting_decision,searching&runtime_status=running&page_size=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(captured.State) != 2 || captured.State[1] != "searching" {
		t.Errorf("state filter = %v", captured.State)
	}
	if len(captured.RuntimeStatus) != 1 || captured.RuntimeStatus[0] != "running" {
		t.Errorf("runtime_status filter = %v", captured.RuntimeStatus)
	}
	if capturedPage.PageSize != 5 {
		t.Errorf("page size = %d, want 5", capturedPage.PageSize)
	}

	var result pagination.PageResult[travel.Summary]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != sampleID {
		t.Errorf("data = %+v", result.Data)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", workflow.ErrInstanceNotFound, http.StatusNotFound},
		{"invalid body", travel.ErrInvalidBody, http.StatusBadRequest},
		{"conflict", workflow.ErrConflict, http.StatusConflict},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := travel.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
