package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"queuectl/internal/store"
	"queuectl/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "dash.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv, err := New(st, logger, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex_RendersJobs(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	if err := st.Enqueue(ctx, &store.Job{ID: "render-me", Command: "echo hello dashboard", Priority: 7}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rec := get(t, srv.Router(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "render-me") {
		t.Error("page missing job id")
	}
	if !strings.Contains(body, "echo hello dashboard") {
		t.Error("page missing job command")
	}
	if !strings.Contains(body, "pending") {
		t.Error("page missing job state")
	}
}

func TestIndex_EmptyQueue(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Router(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Router(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("got body %q", rec.Body.String())
	}
}

func TestMetricsRoute_DisabledWithoutHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Router(), "/metrics")
	if rec.Code == http.StatusOK {
		t.Error("metrics route should not exist without a handler")
	}
}

func TestMetricsRoute_UsesProvidedHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "dash.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metric_stub 1"))
	})
	srv, err := New(st, logger, handler)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	rec := get(t, srv.Router(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "metric_stub") {
		t.Errorf("got body %q", rec.Body.String())
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	var limited bool
	for i := 0; i < 100; i++ {
		rec := get(t, router, "/healthz")
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") != "1" {
				t.Error("429 missing Retry-After header")
			}
			break
		}
	}
	if !limited {
		t.Error("burst of requests was never rate limited")
	}
}
