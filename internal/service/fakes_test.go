package service

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/port"
)

// fakeProc is a scriptable port.Process. A proc built with newDoneProc
// returns from Wait immediately; one built with newBlockedProc blocks until
// released or stopped.
type fakeProc struct {
	exitCode int
	output   string
	release  chan struct{}
	once     sync.Once

	mu      sync.Mutex
	stopped bool
}

func newDoneProc(exitCode int, output string) *fakeProc {
	p := newBlockedProc(exitCode, output)
	p.Release()
	return p
}

func newBlockedProc(exitCode int, output string) *fakeProc {
	return &fakeProc{exitCode: exitCode, output: output, release: make(chan struct{})}
}

func (p *fakeProc) Wait() *port.ExecResult {
	<-p.release
	return &port.ExecResult{ExitCode: p.exitCode, Output: []byte(p.output)}
}

func (p *fakeProc) Stop(time.Duration) {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.Release()
}

func (p *fakeProc) Release() { p.once.Do(func() { close(p.release) }) }

func (p *fakeProc) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// fakeTool is a scriptable port.MediaTool that counts invocations. When
// writeOutput is set the Start methods create the output file so the
// artifact path of the orchestrators is exercised.
type fakeTool struct {
	mu sync.Mutex

	recordProc  port.Process
	trimProc    port.Process
	extractProc port.Process
	recordErr   error
	trimErr     error
	extractErr  error

	duration     int
	durationErr  error
	thumbnailErr error
	online       bool
	checkDetail  string
	checkErrFor  map[string]string // url -> detail forcing offline

	writeOutput bool

	recordCalls  int
	trimCalls    int
	extractCalls int
	checkCalls   int
}

func (f *fakeTool) StartRecording(url, outputPath string) (port.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	if f.writeOutput {
		_ = os.WriteFile(outputPath, []byte("capture"), 0644)
	}
	return f.recordProc, nil
}

func (f *fakeTool) StartTrim(inputPath, outputPath string, startSec, endSec int) (port.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trimCalls++
	if f.trimErr != nil {
		return nil, f.trimErr
	}
	if f.writeOutput {
		_ = os.WriteFile(outputPath, []byte("trimmed"), 0644)
	}
	return f.trimProc, nil
}

func (f *fakeTool) StartAudioExtract(inputPath, outputPath, bitrate string) (port.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractCalls++
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if f.writeOutput {
		_ = os.WriteFile(outputPath, []byte("audio"), 0644)
	}
	return f.extractProc, nil
}

func (f *fakeTool) Thumbnail(inputPath, outputPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return os.WriteFile(outputPath, []byte("jpg"), 0644)
}

func (f *fakeTool) Duration(path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, f.durationErr
}

func (f *fakeTool) CheckStream(ctx context.Context, url string) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if detail, ok := f.checkErrFor[url]; ok {
		return false, detail
	}
	return f.online, f.checkDetail
}

func (f *fakeTool) ExtractCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extractCalls
}

func (f *fakeTool) CheckCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkCalls
}

// memStore is an in-memory implementation of every store port, mirroring the
// sqlite adapter's copy-on-read behavior.
type memStore struct {
	mu sync.Mutex

	sources      map[int64]*domain.Source
	recordTasks  map[int64]*domain.RecordTask
	extractTasks map[int64]*domain.ExtractTask
	trimTasks    map[int64]*domain.TrimTask
	uploads      map[string]*domain.UploadSession
	videos       map[int64]*domain.Video
	schedules    map[int64]*domain.Schedule
	nextID       int64

	sourceUpdateErr error
	statusWrites    int
}

func newMemStore() *memStore {
	return &memStore{
		sources:      make(map[int64]*domain.Source),
		recordTasks:  make(map[int64]*domain.RecordTask),
		extractTasks: make(map[int64]*domain.ExtractTask),
		trimTasks:    make(map[int64]*domain.TrimTask),
		uploads:      make(map[string]*domain.UploadSession),
		videos:       make(map[int64]*domain.Video),
		schedules:    make(map[int64]*domain.Schedule),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addSource(s *domain.Source) *domain.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	}
	m.sources[s.ID] = s
	return s
}

func (m *memStore) addVideo(v *domain.Video) *domain.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = m.id()
	}
	if v.ReviewStatus == "" {
		v.ReviewStatus = domain.ReviewStatusPending
	}
	m.videos[v.ID] = v
	return v
}

func (m *memStore) GetSource(id int64) (*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListActiveSources() ([]*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Source
	for _, s := range m.sources {
		if s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateSourceStatus(id int64, online bool, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sourceUpdateErr != nil {
		return m.sourceUpdateErr
	}
	s, ok := m.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsOnline = online
	s.LastCheckAt.Time = checkedAt
	s.LastCheckAt.Valid = true
	m.statusWrites++
	return nil
}

func (m *memStore) StatusWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusWrites
}

func (m *memStore) CreateRecordTask(t *domain.RecordTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.CreatedAt = time.Now()
	cp := *t
	m.recordTasks[t.ID] = &cp
	return nil
}

func (m *memStore) GetRecordTask(id int64) (*domain.RecordTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.recordTasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ActiveRecordTask(sourceID int64) (*domain.RecordTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.recordTasks {
		if t.SourceID == sourceID &&
			(t.Status == domain.RecordStatusPending || t.Status == domain.RecordStatusRecording) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) LatestRecordTask(sourceID int64) (*domain.RecordTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.RecordTask
	for _, t := range m.recordTasks {
		if t.SourceID == sourceID && (latest == nil || t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) UpdateRecordTask(t *domain.RecordTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recordTasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.recordTasks[t.ID] = &cp
	return nil
}

func (m *memStore) OrphanRecordTasks(message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.recordTasks {
		if t.Status == domain.RecordStatusPending || t.Status == domain.RecordStatusRecording {
			t.Status = domain.RecordStatusInterrupted
			t.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateExtractTask(t *domain.ExtractTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.CreatedAt = time.Now()
	cp := *t
	m.extractTasks[t.ID] = &cp
	return nil
}

func (m *memStore) GetExtractTask(id int64) (*domain.ExtractTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.extractTasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ProcessingExtractTask(videoID int64) (*domain.ExtractTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.extractTasks {
		if t.VideoID == videoID &&
			(t.Status == domain.ExtractStatusPending || t.Status == domain.ExtractStatusProcessing) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) CompletedExtractTask(videoID int64, format string) (*domain.ExtractTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.ExtractTask
	for _, t := range m.extractTasks {
		if t.VideoID == videoID && t.Format == format && t.Status == domain.ExtractStatusCompleted {
			if latest == nil || t.ID > latest.ID {
				latest = t
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) LatestExtractTask(videoID int64) (*domain.ExtractTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.ExtractTask
	for _, t := range m.extractTasks {
		if t.VideoID == videoID && (latest == nil || t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) UpdateExtractTask(t *domain.ExtractTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.extractTasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.extractTasks[t.ID] = &cp
	return nil
}

func (m *memStore) OrphanExtractTasks(message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.extractTasks {
		if t.Status == domain.ExtractStatusPending || t.Status == domain.ExtractStatusProcessing {
			t.Status = domain.ExtractStatusFailed
			t.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateTrimTask(t *domain.TrimTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.CreatedAt = time.Now()
	cp := *t
	m.trimTasks[t.ID] = &cp
	return nil
}

func (m *memStore) GetTrimTask(id int64) (*domain.TrimTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trimTasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ProcessingTrimTask(videoID int64) (*domain.TrimTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trimTasks {
		if t.VideoID == videoID &&
			(t.Status == domain.TrimStatusPending || t.Status == domain.TrimStatusProcessing) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) LatestTrimTask(videoID int64) (*domain.TrimTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.TrimTask
	for _, t := range m.trimTasks {
		if t.VideoID == videoID && (latest == nil || t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) UpdateTrimTask(t *domain.TrimTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trimTasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.trimTasks[t.ID] = &cp
	return nil
}

func (m *memStore) OrphanTrimTasks(message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.trimTasks {
		if t.Status == domain.TrimStatusPending || t.Status == domain.TrimStatusProcessing {
			t.Status = domain.TrimStatusFailed
			t.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateUploadSession(s *domain.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = time.Now()
	cp := *s
	m.uploads[s.ID] = &cp
	return nil
}

func (m *memStore) GetUploadSession(id string) (*domain.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.uploads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateUploadSession(s *domain.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.uploads[s.ID] = &cp
	return nil
}

func (m *memStore) DeleteUploadSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.uploads, id)
	return nil
}

func (m *memStore) CreateVideo(v *domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	v.CreatedAt = time.Now()
	if v.ReviewStatus == "" {
		v.ReviewStatus = domain.ReviewStatusPending
	}
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

// firstVideo returns the lowest-id video, for asserting on artifacts created
// by a background run.
func (m *memStore) firstVideo() (*domain.Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first *domain.Video
	for _, v := range m.videos {
		if first == nil || v.ID < first.ID {
			first = v
		}
	}
	if first == nil {
		return nil, false
	}
	cp := *first
	return &cp, true
}

func (m *memStore) GetVideo(id int64) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) UpdateVideo(v *domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *memStore) ListActiveSchedules() ([]*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Schedule
	for _, s := range m.schedules {
		if s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetSchedule(id int64) (*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) TouchScheduleRun(id int64, ranAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastRunAt.Time = ranAt
	s.LastRunAt.Valid = true
	return nil
}

var (
	_ port.SourceStore      = (*memStore)(nil)
	_ port.RecordTaskStore  = (*memStore)(nil)
	_ port.ExtractTaskStore = (*memStore)(nil)
	_ port.TrimTaskStore    = (*memStore)(nil)
	_ port.UploadStore      = (*memStore)(nil)
	_ port.VideoStore       = (*memStore)(nil)
	_ port.ScheduleStore    = (*memStore)(nil)
	_ port.MediaTool        = (*fakeTool)(nil)
	_ port.Process          = (*fakeProc)(nil)
)
