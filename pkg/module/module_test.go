package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/wayfinder/pkg/module"
)

func TestNewPrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		invalid bool
	}{
		{name: "api", prefix: "/api"},
		{name: "travel", prefix: "/travel"},
		{name: "empty", prefix: "", invalid: true},
		{name: "no leading slash", prefix: "api", invalid: true},
		{name: "nested path", prefix: "/api/travel", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if tt.invalid && r == nil {
					t.Error("expected panic for invalid prefix")
				}
				if !tt.invalid && r != nil {
					t.Errorf("unexpected panic: %v", r)
				}
			}()

			m := module.New(tt.prefix, http.NewServeMux())
			if m.Prefix() != tt.prefix {
				t.Errorf("prefix: got %s, want %s", m.Prefix(), tt.prefix)
			}
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	var gotPath, gotQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
	})

	m := module.New("/api", mux)

	tests := []struct {
		name      string
		target    string
		wantPath  string
		wantQuery string
	}{
		{"nested path", "/api/travel/instances?page=2", "/travel/instances", "page=2"},
		{"module root", "/api", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", tt.target, nil))

			if gotPath != tt.wantPath {
				t.Errorf("inner path: got %s, want %s", gotPath, tt.wantPath)
			}
			if gotQuery != tt.wantQuery {
				t.Errorf("query: got %s, want %s", gotQuery, tt.wantQuery)
			}
		})
	}
}

func TestModuleMiddlewareWrapsRouter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	m := module.New("/api", mux)
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Header().Get("X-Module") != "api" {
		t.Error("module middleware should have run")
	}
}

func TestRouter(t *testing.T) {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /travel/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("status " + r.PathValue("id")))
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", apiMux))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"module route", "/api/travel/status/abc", http.StatusOK, "status abc"},
		{"trailing slash trimmed", "/api/travel/status/abc/", http.StatusOK, "status abc"},
		{"native fallback", "/healthz", http.StatusOK, "ok"},
		{"unknown prefix", "/docs", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
