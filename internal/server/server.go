// Package server exposes the invoice pipeline over HTTP.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/ShashankBhutiya/TallyAI/internal/pipeline"
	"github.com/ShashankBhutiya/TallyAI/internal/runlog"
)

// maxUploadBytes caps a single invoice image upload.
const maxUploadBytes = 20 << 20

// Handler serves the upload endpoint and run history.
type Handler struct {
	proc   *pipeline.Processor
	store  runlog.Store
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(proc *pipeline.Processor, store runlog.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{proc: proc, store: store, logger: logger}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(30, time.Minute))

	r.Get("/healthz", h.health)
	r.Post("/upload-invoice", h.uploadInvoice)
	r.Get("/runs", h.listRuns)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadInvoice runs the synchronous single-file pipeline on the
// uploaded image and reports the outcome.
func (h *Handler) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No selected file"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("reading upload", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read upload"})
		return
	}

	ok, msg := h.proc.ProcessFile(r.Context(), header.Filename, data)
	if !ok {
		h.logger.Warn("upload processing failed", "file", header.Filename, "reason", msg)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File processed successfully",
		"status":  string(runlog.StatusProcessed),
		"data": map[string]any{
			"fileName":   header.Filename,
			"uploadedAt": time.Now().UTC().Format(time.RFC3339),
			"result":     msg,
		},
	})
}

// listRuns returns the recorded processing runs, oldest first.
func (h *Handler) listRuns(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, []runlog.Record{})
		return
	}

	recs, err := h.store.All()
	if err != nil {
		h.logger.Error("reading run log", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read run log"})
		return
	}
	if recs == nil {
		recs = []runlog.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
