// Package dashboard serves a read-only web view of the job queue: per-state
// counts, aggregate metrics and the job table, rendered from the same query
// interface the CLI uses.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"queuectl/internal/store"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server renders the dashboard. It holds no state beyond the store handle.
type Server struct {
	store   store.Store
	logger  *slog.Logger
	tmpl    *template.Template
	metrics http.Handler
}

// New creates a dashboard server. metricsHandler serves /metrics and may be
// nil to disable the endpoint.
func New(st store.Store, logger *slog.Logger, metricsHandler http.Handler) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, logger: logger, tmpl: tmpl, metrics: metricsHandler}, nil
}

// Router builds the HTTP routes behind a shared rate limiter.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(20), 40)))
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

// rateLimitMiddleware bounds request rate with a single shared limiter;
// the dashboard is an operator tool, not a public surface.
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type jobRow struct {
	ID        string
	Command   string
	State     store.JobState
	Attempts  int
	Priority  int
	RunAt     string
	UpdatedAt string
	LastError string
	WorkerID  string
}

type indexData struct {
	// Keyed by plain strings so the template can index with literals.
	Counts      map[string]int64
	Metrics     *store.Metrics
	AvgDuration string
	Jobs        []jobRow
	Now         string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := s.store.CountsByState(ctx)
	if err != nil {
		s.httpError(w, "failed to load counts", err)
		return
	}
	metrics, err := s.store.Metrics(ctx)
	if err != nil {
		s.httpError(w, "failed to load metrics", err)
		return
	}
	jobs, err := s.store.ListJobs(ctx, "")
	if err != nil {
		s.httpError(w, "failed to list jobs", err)
		return
	}

	data := indexData{
		Counts:  make(map[string]int64, len(counts)),
		Metrics: metrics,
		Now:     time.Now().UTC().Format(time.RFC3339),
	}
	for state, n := range counts {
		data.Counts[string(state)] = n
	}
	if metrics.AvgDuration != nil {
		data.AvgDuration = fmt.Sprintf("%.2fs", *metrics.AvgDuration)
	}
	for _, j := range jobs {
		row := jobRow{
			ID:        j.ID,
			Command:   j.Command,
			State:     j.State,
			Attempts:  j.Attempts,
			Priority:  j.Priority,
			UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
		}
		if j.RunAt != nil {
			row.RunAt = j.RunAt.Format(time.RFC3339)
		}
		if j.LastError != nil {
			row.LastError = *j.LastError
		}
		if j.WorkerID != nil {
			row.WorkerID = *j.WorkerID
		}
		data.Jobs = append(data.Jobs, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("template render failed", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) httpError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}
