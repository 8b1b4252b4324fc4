package service

import (
	"sync"
	"time"

	"github.com/streamvault/streamvault/internal/port"
)

// stopGrace is how long a terminate signal gets before escalating to a kill.
const stopGrace = 5 * time.Second

// Registry maps a task id to its live process handle. The handle exists only
// in memory: after a restart the rows are still there but the processes are
// not, which is why the orchestrators run a reconcile pass at startup.
// Each orchestrator owns its own Registry, so ids never collide across kinds.
type Registry struct {
	mu    sync.Mutex
	procs map[int64]port.Process
}

func NewRegistry() *Registry {
	return &Registry{procs: make(map[int64]port.Process)}
}

func (r *Registry) Register(taskID int64, p port.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[taskID] = p
}

func (r *Registry) Unregister(taskID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, taskID)
}

func (r *Registry) Get(taskID int64) port.Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.procs[taskID]
}

// Stop terminates the registered process for a task. Returns false when no
// process is registered; a process that already exited is not an error.
func (r *Registry) Stop(taskID int64, grace time.Duration) bool {
	p := r.Get(taskID)
	if p == nil {
		return false
	}
	p.Stop(grace)
	return true
}
