package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const maxUploadBytes = 32 << 20

// FileStore is the file access the handler serves. Any store backend
// (Drive, S3, MinIO, local disk) satisfies it.
type FileStore interface {
	GetFileContent(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) (domain.FileMetadata, error)
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error)
}

// Handler exposes a file browser over a FileStore.
type Handler struct {
	store FileStore
}

func NewHandler(store FileStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/files/upload", h.UploadFile).Methods("PUT", "POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria := domain.SearchCriteria{
		Path:         query.Get("path"),
		MimeType:     query.Get("mimeType"),
		NameContains: query.Get("name"),
	}

	files, err := h.store.Search(r.Context(), criteria)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		http.Error(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	data, err := h.store.GetFileContent(r.Context(), filePath)
	if err != nil {
		writeError(w, err)
		return
	}

	name := path.Base(filePath)
	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		http.Error(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	meta, err := h.store.WriteFile(r.Context(), filePath, data)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("path", meta.Path).Int("bytes", len(data)).Msg("file uploaded")
	writeJSON(w, http.StatusCreated, meta)
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return domain.MimeXLSX
	case ".csv":
		return domain.MimeCSV
	default:
		return "application/octet-stream"
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrFileNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("file request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
