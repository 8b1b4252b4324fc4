package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
)

// chunkNameFormat's six digits bound the index space: within it the lexical
// order of the scratch files equals numeric order, past it the merge would
// silently reorder. Init rejects sessions that would overflow it.
const (
	chunkNameFormat = "chunk_%06d"
	maxTotalChunks  = 999999
)

// uploadKind maps an allowed file extension to its catalog kind and size cap.
type uploadKind struct {
	fileKind domain.FileKind
	maxSize  int64
}

// Uploader manages chunked upload sessions. Chunks land in a per-session
// scratch directory under temp/ and are merged into the storage root on
// completion; the scratch directory is the source of truth for which chunks
// have arrived, so retried chunks are naturally idempotent.
type Uploader struct {
	sessions   port.UploadStore
	videos     port.VideoStore
	tool       port.MediaTool
	storageDir string
	tempDir    string
	kinds      map[string]uploadKind
}

func NewUploader(sessions port.UploadStore, videos port.VideoStore, tool port.MediaTool, storageDir, tempDir string, maxVideoSize, maxAudioSize int64) *Uploader {
	return &Uploader{
		sessions:   sessions,
		videos:     videos,
		tool:       tool,
		storageDir: storageDir,
		tempDir:    tempDir,
		kinds: map[string]uploadKind{
			".mp4": {domain.FileKindVideo, maxVideoSize},
			".mp3": {domain.FileKindAudio, maxAudioSize},
			".m4a": {domain.FileKindAudio, maxAudioSize},
		},
	}
}

// Init validates the declared file and opens a session. The chunk count is
// fixed up front from the declared size so the client and server agree on
// the index space before any bytes move.
func (u *Uploader) Init(filename string, fileSize, chunkSize int64) (*domain.UploadSession, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := u.kinds[ext]
	if !ok {
		return nil, domain.ErrDisallowedType
	}
	if fileSize <= 0 || fileSize > kind.maxSize {
		return nil, domain.ErrTooLarge
	}
	if chunkSize <= 0 {
		return nil, domain.ErrBadChunkIndex
	}
	totalChunks := int((fileSize + chunkSize - 1) / chunkSize)
	if totalChunks > maxTotalChunks {
		return nil, domain.ErrBadChunkIndex
	}

	session := &domain.UploadSession{
		ID:          uuid.NewString(),
		Filename:    filename,
		FileSize:    fileSize,
		ChunkSize:   chunkSize,
		TotalChunks: totalChunks,
		Status:      domain.UploadStatusUploading,
	}

	if err := os.MkdirAll(u.scratchDir(session.ID), 0755); err != nil {
		return nil, fmt.Errorf("create upload scratch: %w", err)
	}
	if err := u.sessions.CreateUploadSession(session); err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}

	logger.Info.Printf("upload session %s opened for %s (%d chunks)",
		session.ID, logger.SanitizeForLog(filename), session.TotalChunks)
	return session, nil
}

// PutChunk writes one chunk. Re-sending an index overwrites the previous
// copy, so a client retrying after a network error needs no special casing.
func (u *Uploader) PutChunk(sessionID string, index int, data io.Reader) (*domain.UploadSession, error) {
	session, err := u.sessions.GetUploadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.UploadStatusUploading {
		return nil, domain.ErrWrongState
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, domain.ErrBadChunkIndex
	}

	chunkPath := filepath.Join(u.scratchDir(sessionID), fmt.Sprintf(chunkNameFormat, index))
	f, err := os.Create(chunkPath)
	if err != nil {
		return nil, fmt.Errorf("create chunk file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(chunkPath)
		return nil, fmt.Errorf("write chunk %d: %w", index, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close chunk %d: %w", index, err)
	}

	session.UploadedChunks = len(u.presentChunks(sessionID))
	if err := u.sessions.UpdateUploadSession(session); err != nil {
		return nil, fmt.Errorf("update upload session: %w", err)
	}
	return session, nil
}

// Status refreshes the chunk counter from disk before returning the session.
func (u *Uploader) Status(sessionID string) (*domain.UploadSession, error) {
	session, err := u.sessions.GetUploadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.UploadStatusUploading {
		session.UploadedChunks = len(u.presentChunks(sessionID))
	}
	return session, nil
}

// Complete merges the chunks into the storage root and creates the catalog
// row. A merge failure is terminal: the partial output is removed and the
// session is marked failed, with the chunks left on disk for inspection.
func (u *Uploader) Complete(sessionID string) (*domain.Video, error) {
	session, err := u.sessions.GetUploadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.UploadStatusUploading {
		return nil, domain.ErrWrongState
	}

	chunks := u.presentChunks(sessionID)
	if len(chunks) != session.TotalChunks {
		return nil, domain.ErrIncomplete
	}

	ext := strings.ToLower(filepath.Ext(session.Filename))
	kind := u.kinds[ext]
	finalName := fmt.Sprintf("upload_%s_%s%s",
		time.Now().Format("20060102_150405"), sessionID[:8], ext)
	finalPath := filepath.Join(u.storageDir, finalName)

	if err := u.merge(chunks, finalPath); err != nil {
		os.Remove(finalPath)
		session.Status = domain.UploadStatusFailed
		if uerr := u.sessions.UpdateUploadSession(session); uerr != nil {
			logger.Error.Printf("upload session %s: persist failure: %v", sessionID, uerr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMergeFailed, err)
	}

	video := &domain.Video{
		Title:        domain.Stem(session.Filename),
		FilePath:     finalName,
		SourceKind:   domain.SourceKindUploaded,
		FileKind:     kind.fileKind,
		ReviewStatus: domain.ReviewStatusPending,
	}
	if info, err := os.Stat(finalPath); err == nil {
		video.FileSize = info.Size()
	}
	if duration, err := u.tool.Duration(finalPath); err == nil {
		video.Duration = duration
	} else {
		logger.Warn.Printf("upload session %s: probe duration: %v", sessionID, err)
	}
	if kind.fileKind == domain.FileKindVideo {
		thumbName := strings.TrimSuffix(finalName, ext) + ".jpg"
		thumbPath := filepath.Join(u.storageDir, "thumbnails", thumbName)
		if err := os.MkdirAll(filepath.Dir(thumbPath), 0755); err == nil {
			if err := u.tool.Thumbnail(finalPath, thumbPath); err == nil {
				video.Thumbnail = filepath.Join("thumbnails", thumbName)
			} else {
				logger.Warn.Printf("upload session %s: thumbnail: %v", sessionID, err)
			}
		}
	}

	if err := u.videos.CreateVideo(video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	session.Status = domain.UploadStatusCompleted
	session.UploadedChunks = session.TotalChunks
	if err := u.sessions.UpdateUploadSession(session); err != nil {
		logger.Error.Printf("upload session %s: persist completion: %v", sessionID, err)
	}
	if err := os.RemoveAll(u.scratchDir(sessionID)); err != nil {
		logger.Warn.Printf("upload session %s: remove scratch: %v", sessionID, err)
	}

	logger.Info.Printf("upload session %s completed as video %d", sessionID, video.ID)
	return video, nil
}

// Cancel drops the session and its scratch directory regardless of state.
func (u *Uploader) Cancel(sessionID string) error {
	if _, err := u.sessions.GetUploadSession(sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(u.scratchDir(sessionID)); err != nil {
		logger.Warn.Printf("upload session %s: remove scratch: %v", sessionID, err)
	}
	return u.sessions.DeleteUploadSession(sessionID)
}

func (u *Uploader) scratchDir(sessionID string) string {
	return filepath.Join(u.tempDir, sessionID)
}

// presentChunks lists the chunk files currently on disk, sorted by name.
// The zero-padded naming makes lexical order equal index order.
func (u *Uploader) presentChunks(sessionID string) []string {
	entries, err := os.ReadDir(u.scratchDir(sessionID))
	if err != nil {
		return nil
	}
	var chunks []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "chunk_") {
			chunks = append(chunks, filepath.Join(u.scratchDir(sessionID), e.Name()))
		}
	}
	sort.Strings(chunks)
	return chunks
}

func (u *Uploader) merge(chunks []string, finalPath string) error {
	out, err := os.Create(finalPath)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		in, err := os.Open(chunk)
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("append %s: %w", filepath.Base(chunk), err)
		}
	}
	return out.Close()
}
