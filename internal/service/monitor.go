package service

import (
	"context"
	"sync"
	"time"

	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
)

// Monitor periodically probes each active source and records whether it is
// reachable. State changes are broadcast to event subscribers; steady-state
// sweeps stay silent.
type Monitor struct {
	sources     port.SourceStore
	tool        port.MediaTool
	broadcaster *Broadcaster
	interval    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(sources port.SourceStore, tool port.MediaTool, broadcaster *Broadcaster, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		sources:     sources,
		tool:        tool,
		broadcaster: broadcaster,
		interval:    interval,
	}
}

// Start launches the sweep loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, m.done)
	logger.Info.Printf("source monitor started (interval %s)", m.interval)
}

// Stop halts the loop and waits for any in-flight sweep to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Info.Println("source monitor stopped")
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep probes every active source once. A probe failure marks the source
// offline; it never aborts the rest of the sweep.
func (m *Monitor) sweep(ctx context.Context) {
	sources, err := m.sources.ListActiveSources()
	if err != nil {
		logger.Error.Printf("monitor: list sources: %v", err)
		return
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}

		online, detail := m.tool.CheckStream(ctx, src.URL)
		if !online && detail != "" {
			logger.Debug.Printf("monitor: source %d offline: %s", src.ID, logger.SanitizeForLog(detail))
		}

		if err := m.sources.UpdateSourceStatus(src.ID, online, time.Now()); err != nil {
			logger.Error.Printf("monitor: update source %d: %v", src.ID, err)
			continue
		}
		if online != src.IsOnline {
			logger.Info.Printf("monitor: source %d is now %s", src.ID, statusWord(online))
			m.broadcaster.BroadcastSourceStatus(SourceStatusData{
				SourceID:  src.ID,
				IsOnline:  online,
				Timestamp: time.Now(),
			})
		}
	}
}

func statusWord(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
