package api

import (
	"encoding/json"
	"net/http"
	"os/exec"

	"github.com/fetchbox/fetchbox/internal/config"
	"github.com/fetchbox/fetchbox/internal/job"
	"github.com/fetchbox/fetchbox/internal/queue"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	store *job.Store
	queue *queue.Queue
	cfg   *config.Config
}

// NewHandler constructs a Handler with the given dependencies.
func NewHandler(store *job.Store, q *queue.Queue, cfg *config.Config) *Handler {
	return &Handler{store: store, queue: q, cfg: cfg}
}

// RegisterRoutes registers all API routes on mux, plus static serving of
// completed artifacts under /downloads/.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/download", h.SubmitDownload)
	mux.HandleFunc("GET /api/status/{id}", h.GetStatus)
	mux.HandleFunc("GET /api/status/{id}/sse", h.StreamSSE)
	mux.HandleFunc("DELETE /api/cleanup/{id}", h.CleanupJob)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /downloads/", http.StripPrefix("/downloads/",
		http.FileServer(http.Dir(h.cfg.DownloadDir))))
}

// SubmitDownload handles POST /api/download. It validates the URL, creates a
// pending job and returns its id immediately; all download work happens on
// the worker pool.
func (h *Handler) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB max
	var req job.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := req.Validate(h.cfg.AllowedDomains); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.queue.Submit(req.URL, req.CallbackURL)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "queue full, try again later")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  id,
		"status":  string(job.StatusPending),
		"message": "download started",
	})
}

// GetStatus handles GET /api/status/{id} and responds 200 with the job view.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	j, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, j)
}

// CleanupJob handles DELETE /api/cleanup/{id}: artifacts and the record are
// removed. Always succeeds; cleaning an unknown or already-cleaned job is a
// no-op.
func (h *Handler) CleanupJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.queue.Cleanup(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clean up job")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleaned"})
}

// Health handles GET /api/health. It reports whether the extraction engine
// binary is reachable so a deployment with a missing yt-dlp shows up before
// the first job fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "engine": "available"}
	if _, err := exec.LookPath(h.cfg.YtDlpPath); err != nil {
		resp["engine"] = "missing"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
