package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
	"github.com/streamvault/streamvault/internal/service"
)

// HookHandler receives liveness callbacks from the streaming ingest. The
// hook is unauthenticated: the ingest server runs next to us and cannot
// carry a token.
type HookHandler struct {
	sources     port.SourceStore
	broadcaster *service.Broadcaster
}

func NewHookHandler(sources port.SourceStore, broadcaster *service.Broadcaster) *HookHandler {
	return &HookHandler{sources: sources, broadcaster: broadcaster}
}

type streamHookRequest struct {
	StreamPath string `json:"stream_path"`
	EventType  string `json:"event_type"`
}

// StreamHook matches the reported path against every active source URL by
// substring. Several sources can share one ingest path; every match is
// updated and broadcast.
func (h *HookHandler) StreamHook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req streamHookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.StreamPath == "" {
			http.Error(w, "stream_path is required", http.StatusBadRequest)
			return
		}

		var online bool
		switch req.EventType {
		case "publish":
			online = true
		case "publish_done":
			online = false
		default:
			http.Error(w, "unknown event_type", http.StatusBadRequest)
			return
		}

		sources, err := h.sources.ListActiveSources()
		if err != nil {
			writeError(w, err)
			return
		}

		now := time.Now()
		matched := 0
		for _, src := range sources {
			if !strings.Contains(src.URL, req.StreamPath) {
				continue
			}
			matched++
			logger.Info.Printf("stream hook: source %d %s (%s)",
				src.ID, req.EventType, logger.SanitizeForLog(req.StreamPath))

			if err := h.sources.UpdateSourceStatus(src.ID, online, now); err != nil {
				logger.Error.Printf("stream hook: update source %d: %v", src.ID, err)
				continue
			}
			h.broadcaster.BroadcastSourceStatus(service.SourceStatusData{
				SourceID:  src.ID,
				IsOnline:  online,
				Timestamp: now,
			})
		}

		writeJSON(w, http.StatusOK, map[string]int{"matched": matched})
	}
}
