package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault/internal/domain"
)

func TestMonitor_Sweep_UpdatesEverySource(t *testing.T) {
	store := newMemStore()
	a := store.addSource(&domain.Source{Name: "a", URL: "rtmp://host/a", IsActive: true})
	b := store.addSource(&domain.Source{Name: "b", URL: "rtmp://host/b", IsActive: true})
	store.addSource(&domain.Source{Name: "c", URL: "rtmp://host/c", IsActive: false})

	// One probe fails; the sweep still reaches the other source.
	tool := &fakeTool{online: true, checkErrFor: map[string]string{a.URL: "connection timeout"}}
	monitor := NewMonitor(store, tool, NewBroadcaster(), 10*time.Millisecond)

	monitor.Start()
	require.Eventually(t, func() bool { return store.StatusWrites() >= 2 }, 2*time.Second, 5*time.Millisecond)
	monitor.Stop()

	gotA, err := store.GetSource(a.ID)
	require.NoError(t, err)
	assert.False(t, gotA.IsOnline)
	assert.True(t, gotA.LastCheckAt.Valid)

	gotB, err := store.GetSource(b.ID)
	require.NoError(t, err)
	assert.True(t, gotB.IsOnline)
}

func TestMonitor_BroadcastsOnlyOnTransition(t *testing.T) {
	store := newMemStore()
	store.addSource(&domain.Source{Name: "a", URL: "rtmp://host/a", IsActive: true, IsOnline: false})

	tool := &fakeTool{online: true}
	broadcaster := NewBroadcaster()
	_, events := broadcaster.Subscribe()

	monitor := NewMonitor(store, tool, broadcaster, 10*time.Millisecond)
	monitor.Start()
	defer monitor.Stop()

	// First sweep flips offline -> online.
	select {
	case ev := <-events:
		assert.Equal(t, "source_status_changed", ev.Type)
		data, ok := ev.Data.(SourceStatusData)
		require.True(t, ok)
		assert.True(t, data.IsOnline)
	case <-time.After(2 * time.Second):
		t.Fatal("no transition event")
	}

	// Steady state: further sweeps are silent.
	require.Eventually(t, func() bool { return tool.CheckCalls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %q in steady state", ev.Type)
	default:
	}
}

func TestMonitor_StopHaltsSweeps(t *testing.T) {
	store := newMemStore()
	store.addSource(&domain.Source{Name: "a", URL: "rtmp://host/a", IsActive: true})

	tool := &fakeTool{online: true}
	monitor := NewMonitor(store, tool, NewBroadcaster(), 10*time.Millisecond)

	monitor.Start()
	require.Eventually(t, func() bool { return store.StatusWrites() >= 1 }, 2*time.Second, 5*time.Millisecond)
	monitor.Stop()

	writes := store.StatusWrites()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, writes, store.StatusWrites(), "no writes after Stop returns")

	// Stop twice is harmless, Start after Stop works.
	monitor.Stop()
	monitor.Start()
	monitor.Stop()
}

func TestMonitor_StartIsIdempotent(t *testing.T) {
	store := newMemStore()
	tool := &fakeTool{}
	monitor := NewMonitor(store, tool, NewBroadcaster(), time.Hour)

	monitor.Start()
	monitor.Start()
	monitor.Stop()
}
