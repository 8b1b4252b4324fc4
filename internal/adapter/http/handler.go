package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
	"github.com/streamvault/streamvault/internal/service"
)

type RecorderService interface {
	Start(sourceID int64) (*domain.RecordTask, error)
	Stop(taskID int64) (*domain.RecordTask, error)
	Latest(sourceID int64) (*domain.RecordTask, error)
}

type AudioService interface {
	Start(videoID int64, format, bitrate string) (*domain.ExtractTask, error)
	Latest(videoID int64) (*domain.ExtractTask, error)
}

type TrimService interface {
	Start(videoID int64, startSec, endSec int, extractAudio, keepOriginal bool) (*domain.TrimTask, error)
	Latest(videoID int64) (*domain.TrimTask, error)
	Cancel(taskID int64) bool
}

type Handlers struct {
	recorder    RecorderService
	audio       AudioService
	trimmer     TrimService
	sources     port.SourceStore
	schedules   port.ScheduleStore
	tool        port.MediaTool
	broadcaster *service.Broadcaster
}

func NewHandlers(recorder RecorderService, audio AudioService, trimmer TrimService, sources port.SourceStore, schedules port.ScheduleStore, tool port.MediaTool, broadcaster *service.Broadcaster) *Handlers {
	return &Handlers{
		recorder:    recorder,
		audio:       audio,
		trimmer:     trimmer,
		sources:     sources,
		schedules:   schedules,
		tool:        tool,
		broadcaster: broadcaster,
	}
}

func (h *Handlers) StartRecording() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid source id", http.StatusBadRequest)
			return
		}

		task, err := h.recorder.Start(sourceID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, task)
	}
}

func (h *Handlers) StopRecording() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		task, err := h.recorder.Stop(taskID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func (h *Handlers) LatestRecording() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid source id", http.StatusBadRequest)
			return
		}

		task, err := h.recorder.Latest(sourceID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// SourceStatus probes a source on demand, persists the result and broadcasts
// a transition if the probe disagreed with the stored state.
func (h *Handlers) SourceStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid source id", http.StatusBadRequest)
			return
		}

		source, err := h.sources.GetSource(sourceID)
		if err != nil {
			writeError(w, err)
			return
		}

		online, detail := h.tool.CheckStream(r.Context(), source.URL)
		now := time.Now()
		if err := h.sources.UpdateSourceStatus(source.ID, online, now); err != nil {
			writeError(w, err)
			return
		}
		if online != source.IsOnline {
			h.broadcaster.BroadcastSourceStatus(service.SourceStatusData{
				SourceID:  source.ID,
				IsOnline:  online,
				Timestamp: now,
			})
		}

		resp := map[string]any{
			"source_id":  source.ID,
			"is_online":  online,
			"checked_at": now,
		}
		if !online && detail != "" {
			resp["detail"] = detail
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type extractRequest struct {
	Format  string `json:"format"`
	Bitrate string `json:"bitrate"`
}

func (h *Handlers) StartExtraction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid video id", http.StatusBadRequest)
			return
		}

		req := extractRequest{Format: "mp3", Bitrate: "192k"}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}

		task, err := h.audio.Start(videoID, req.Format, req.Bitrate)
		if err != nil {
			writeError(w, err)
			return
		}
		// A completed task means the extraction was served from a prior run.
		status := http.StatusAccepted
		if task.Status == domain.ExtractStatusCompleted {
			status = http.StatusOK
		}
		writeJSON(w, status, task)
	}
}

func (h *Handlers) LatestExtraction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid video id", http.StatusBadRequest)
			return
		}

		task, err := h.audio.Latest(videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

type trimRequest struct {
	StartTime    int  `json:"start_time"`
	EndTime      int  `json:"end_time"`
	ExtractAudio bool `json:"extract_audio"`
	KeepOriginal bool `json:"keep_original"`
}

func (h *Handlers) StartTrim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid video id", http.StatusBadRequest)
			return
		}

		var req trimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		task, err := h.trimmer.Start(videoID, req.StartTime, req.EndTime, req.ExtractAudio, req.KeepOriginal)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, task)
	}
}

func (h *Handlers) LatestTrim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid video id", http.StatusBadRequest)
			return
		}

		task, err := h.trimmer.Latest(videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func (h *Handlers) CancelTrim() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		if !h.trimmer.Cancel(taskID) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "task is not cancellable",
			})
			return
		}
		logger.Info.Printf("trim task %d cancelled via api", taskID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	}
}

func (h *Handlers) ListSchedules() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schedules, err := h.schedules.ListActiveSchedules()
		if err != nil {
			writeError(w, err)
			return
		}
		if schedules == nil {
			schedules = []*domain.Schedule{}
		}
		writeJSON(w, http.StatusOK, schedules)
	}
}
