package simd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

// HTTPServer exposes the run store read-only over JSON
type HTTPServer struct {
	mux   *http.ServeMux
	store *RunStore
}

func NewHTTPServer(store *RunStore) *HTTPServer {
	s := &HTTPServer{
		mux:   http.NewServeMux(),
		store: store,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleListRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	s.mux.HandleFunc("/v1/rounds", s.handleRounds)
	s.mux.HandleFunc("/v1/jobs", s.handleJobs)
	s.mux.HandleFunc("/v1/jobs/", s.handleJobByID)
	s.mux.HandleFunc("/v1/stats", s.handleStats)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListRuns serves GET /v1/runs?status=&limit=
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	status := models.RunStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.RunStatusPending, models.RunStatusRunning, models.RunStatusCompleted,
		models.RunStatusFailed, models.RunStatusCancelled:
	default:
		s.writeError(w, http.StatusBadRequest, "unknown status "+string(status))
		return
	}
	runs := s.store.List(limit, status)
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleRunByID serves GET /v1/runs/{id}
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}
	run, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": run})
}

// handleRounds serves GET /v1/rounds?session=
func (s *HTTPServer) handleRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rounds := s.store.Rounds(r.URL.Query().Get("session"))
	s.writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds, "count": len(rounds)})
}

func (s *HTTPServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jobs := s.store.Jobs()
	s.writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (s *HTTPServer) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	job, err := s.store.Job(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
