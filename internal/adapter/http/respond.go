package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

// writeError maps domain sentinels to HTTP status codes. Anything unmapped
// is a 500 with a generic message; the detail goes to the log only.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFileMissing):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyActive),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrWrongState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidBitrate),
		errors.Is(err, domain.ErrWrongSourceKind),
		errors.Is(err, domain.ErrBadChunkIndex),
		errors.Is(err, domain.ErrIncomplete):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDisallowedType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrExpiredToken):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Error.Printf("request failed: %v", err)
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
