package nbudigest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/nbudigest/history"
	"github.com/pevans/nbudigest/newsfeed"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// APIServer exposes the stored lists and run history read-only over HTTP.
type APIServer struct {
	processed  *newsfeed.RecordStore
	summarized *newsfeed.RecordStore
	history    history.Store
}

// NewAPIServer creates an API server. history may be nil, in which case
// the runs endpoints answer 404.
func NewAPIServer(processed, summarized *newsfeed.RecordStore, store history.Store) *APIServer {
	return &APIServer{
		processed:  processed,
		summarized: summarized,
		history:    store,
	}
}

// ListRecordsResponse is the body of GET /api/v1/records.
type ListRecordsResponse struct {
	Stage   string                `json:"stage"`
	Records []newsfeed.NewsRecord `json:"records"`
	Total   int                   `json:"total"`
}

// ListRunsResponse is the body of GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []history.Run `json:"runs"`
	Total int           `json:"total"`
	Limit int           `json:"limit"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleListRecords handles GET /api/v1/records?stage=processed|summarized.
func (s *APIServer) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	stage := r.URL.Query().Get("stage")
	var store *newsfeed.RecordStore
	switch stage {
	case "", "summarized":
		stage = "summarized"
		store = s.summarized
	case "processed":
		store = s.processed
	default:
		s.writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid stage parameter: must be processed or summarized")
		return
	}

	records, err := store.Load()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load records: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ListRecordsResponse{
		Stage:   stage,
		Records: records,
		Total:   len(records),
	})
}

// HandleListRuns handles GET /api/v1/runs.
func (s *APIServer) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	limit := defaultRunsLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = min(parsedLimit, maxRunsLimit)
	}

	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list runs: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ListRunsResponse{
		Runs:  runs,
		Total: len(runs),
		Limit: limit,
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}.
func (s *APIServer) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	id, err := s.parseRunID(r.URL.Path, "/api/v1/runs/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_id", "Invalid run ID: "+err.Error())
		return
	}

	run, err := s.history.GetRun(r.Context(), id)
	if errors.Is(err, history.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, "not_found", "Run with ID "+id.String()+" not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get run: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// RouteRuns routes /api/v1/runs/* requests.
func (s *APIServer) RouteRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "Run history is not enabled")
		return
	}

	path := r.URL.Path
	if path == "/api/v1/runs" || path == "/api/v1/runs/" {
		s.HandleListRuns(w, r)
		return
	}
	s.HandleGetRun(w, r)
}

func (s *APIServer) parseRunID(path, prefix string) (uuid.UUID, error) {
	path = strings.TrimPrefix(path, prefix)
	parts := strings.Split(path, "/")
	if len(parts) != 1 || parts[0] == "" {
		return uuid.Nil, fmt.Errorf("no ID provided")
	}
	return uuid.Parse(parts[0])
}

// Handler returns the routed API with CORS headers applied.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Both forms avoid a 301 on the trailing slash
	mux.HandleFunc("/api/v1/records", s.HandleListRecords)
	mux.HandleFunc("/api/v1/runs", s.RouteRuns)
	mux.HandleFunc("/api/v1/runs/", s.RouteRuns)

	return s.CORSMiddleware(mux)
}

// CORSMiddleware adds CORS headers to responses.
func (s *APIServer) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
