// Package server exposes the manual trigger and browse surface over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/export"
	"github.com/mercadoapps/filemonitor/internal/pipeline"
	"github.com/mercadoapps/filemonitor/internal/repository"
	"github.com/mercadoapps/filemonitor/internal/watch"
)

// Server wires the HTTP handlers over the record store, the admission gate
// and the preview pipeline.
type Server struct {
	records   repository.FileRecordRepository
	monitor   *watch.Monitor
	processor *pipeline.Processor
	exporter  *export.Service
	logger    *slog.Logger
}

func New(
	records repository.FileRecordRepository,
	monitor *watch.Monitor,
	processor *pipeline.Processor,
	exporter *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		records:   records,
		monitor:   monitor,
		processor: processor,
		exporter:  exporter,
		logger:    logger,
	}
}

// Router builds the chi router for the /api/files surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/files", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/health", s.handleHealth)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/status/{status}", s.handleByStatus)
		r.Get("/export", s.handleExport)
		r.Post("/process", s.handleProcess)
		r.Get("/produtos/preview", s.handlePreview)
		r.Post("/produtos/generate", s.handleGenerate)
		r.Get("/{id}", s.handleGet)
	})
	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 10)
	if size <= 0 || size > 100 {
		size = 10
	}

	recs, err := s.records.List(r.Context(), page*size, size)
	if err != nil {
		s.internalError(w, "list records", err)
		return
	}
	total, err := s.records.Count(r.Context())
	if err != nil {
		s.internalError(w, "count records", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content": recs,
		"page":    page,
		"size":    size,
		"total":   total,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record id"})
		return
	}
	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		s.internalError(w, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleByStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := constants.ParseStatus(chi.URLParam(r, "status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}
	recs, err := s.records.FindByStatus(r.Context(), status)
	if err != nil {
		s.internalError(w, "records by status", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := map[string]any{}

	total, err := s.records.Count(ctx)
	if err != nil {
		s.internalError(w, "count records", err)
		return
	}
	stats["total_files"] = total

	for key, status := range map[string]constants.ProcessingStatus{
		"pending":    constants.StatusPending,
		"processing": constants.StatusProcessing,
		"completed":  constants.StatusCompleted,
		"errors":     constants.StatusError,
	} {
		n, err := s.records.CountByStatus(ctx, status)
		if err != nil {
			s.internalError(w, "count by status", err)
			return
		}
		stats[key] = n
	}

	now := time.Now().UTC()
	recent, err := s.records.FindByProcessedAtRange(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		s.internalError(w, "recent records", err)
		return
	}
	stats["processed_last_24h"] = len(recent)

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "UP",
		"service":   "file-monitor",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("filePath")
	if filePath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filePath is required"})
		return
	}

	admitted, reason := s.monitor.Dispatch(r.Context(), filePath)
	if !admitted {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "skipped",
			"message": reason,
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "processing started for file: " + filePath,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("filePath")
	if filePath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filePath is required"})
		return
	}

	preview, err := s.processor.Preview(r.Context(), filePath)
	if err != nil {
		s.logger.Error("preview failed", "path", filePath, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "failed to process file: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("filePath")
	if filePath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filePath is required"})
		return
	}

	result, err := s.processor.GenerateProducts(r.Context(), filePath)
	if err != nil {
		s.logger.Error("product generation failed", "path", filePath, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "failed to generate products: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from date, want YYYY-MM-DD"})
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to date, want YYYY-MM-DD"})
		return
	}

	data, err := s.exporter.HistoryXLSX(r.Context(), from, to)
	if err != nil {
		s.internalError(w, "export history", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="processing-history.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
