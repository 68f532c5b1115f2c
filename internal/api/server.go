package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pgnikolov/seoapp/internal/storage"
)

// Server routes the HTTP API. Wrap with Handler() to serve.
type Server struct {
	manager *JobManager
	store   storage.Store
	logger  *slog.Logger
	mux     *http.ServeMux
}

func NewServer(manager *JobManager, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		manager: manager,
		store:   store,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/jobs/{id}/export.csv", s.handleExportCSV)
	s.mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancel)
}

// Handler returns the root handler with request logging attached.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	job, err := s.manager.Submit(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrTooManyJobs):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		s.logger.Error("submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submit failed")
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{Job: job})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	resp := JobResponse{Job: job}
	if job.Status == storage.StatusCompleted {
		keywords, err := s.store.GetKeywords(r.Context(), job.ID)
		if err != nil {
			s.logger.Error("load keywords failed", "job_id", job.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "load keywords failed")
			return
		}
		resp.Keywords = keywords
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	if job.Status != storage.StatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, export requires a completed job", job.Status))
		return
	}
	results, err := s.store.GetKeywords(r.Context(), job.ID)
	if err != nil {
		s.logger.Error("load keywords failed", "job_id", job.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "load keywords failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "keywords-"+job.ID+".csv"))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"phrase", "score", "occurrences", "pages_count", "top_page", "intent", "language"})
	for _, kw := range results {
		_ = cw.Write([]string{
			kw.Phrase,
			strconv.FormatFloat(kw.Score, 'f', 2, 64),
			strconv.Itoa(kw.Occurrences),
			strconv.Itoa(kw.PagesCount),
			kw.TopPage,
			kw.Intent,
			kw.Language,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn("csv write failed", "job_id", job.ID, "error", err)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() {
		writeError(w, http.StatusConflict, fmt.Sprintf("job already %s", job.Status))
		return
	}
	if !s.manager.Cancel(job.ID) {
		writeError(w, http.StatusConflict, "job is not running")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*storage.Job, bool) {
	id := r.PathValue("id")
	job, err := s.store.GetJob(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("load job failed", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "load job failed")
		return nil, false
	}
	return job, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
