package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/streamvault/streamvault/internal/adapter/http/validation"
	"github.com/streamvault/streamvault/internal/domain"
)

type UploadService interface {
	Init(filename string, fileSize, chunkSize int64) (*domain.UploadSession, error)
	PutChunk(sessionID string, index int, data io.Reader) (*domain.UploadSession, error)
	Status(sessionID string) (*domain.UploadSession, error)
	Complete(sessionID string) (*domain.Video, error)
	Cancel(sessionID string) error
}

type UploadHandlers struct {
	uploads UploadService
}

func NewUploadHandlers(uploads UploadService) *UploadHandlers {
	return &UploadHandlers{uploads: uploads}
}

type uploadInitRequest struct {
	Filename  string `json:"filename"`
	FileSize  int64  `json:"file_size"`
	ChunkSize int64  `json:"chunk_size"`
}

func (h *UploadHandlers) Init() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadInitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := h.uploads.Init(validation.SanitizeFilename(req.Filename), req.FileSize, req.ChunkSize)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

// Chunk accepts the raw chunk bytes as the request body; the index comes
// from the X-Chunk-Index header so the body needs no framing.
func (h *UploadHandlers) Chunk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		index, err := strconv.Atoi(r.Header.Get("X-Chunk-Index"))
		if err != nil {
			http.Error(w, "missing or invalid X-Chunk-Index header", http.StatusBadRequest)
			return
		}

		session, err := h.uploads.PutChunk(sessionID, index, r.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (h *UploadHandlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.uploads.Status(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (h *UploadHandlers) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := h.uploads.Complete(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, video)
	}
}

func (h *UploadHandlers) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.uploads.Cancel(r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
