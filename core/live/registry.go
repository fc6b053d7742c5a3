package live

import (
	"context"
	"sync"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

// Registry hands out one monitor per session id, created and started on first
// touch. Monitors are lifecycle-scoped to the registry.
type Registry struct {
	conf    *core.Config
	log     core.Logger
	backend Backend

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewRegistry(conf *core.Config, log core.Logger, backend Backend) *Registry {
	return &Registry{
		conf:     conf,
		log:      log,
		backend:  backend,
		monitors: make(map[string]*Monitor),
	}
}

// Get returns the monitor for sessionID, starting a new one if needed. A
// failed start is not cached; the next call retries from scratch.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Monitor, error) {
	r.mu.Lock()
	if mon, ok := r.monitors[sessionID]; ok {
		r.mu.Unlock()
		return mon, nil
	}
	r.mu.Unlock()

	mon := NewMonitor(r.conf, r.log, r.backend, sessionID)
	if err := mon.Start(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.monitors[sessionID]; ok { // lost the race
		mon.Stop()
		return existing, nil
	}
	r.monitors[sessionID] = mon
	return mon, nil
}

// Stop tears down every monitor.
func (r *Registry) Stop() {
	r.mu.Lock()
	monitors := r.monitors
	r.monitors = make(map[string]*Monitor)
	r.mu.Unlock()

	for _, mon := range monitors {
		mon.Stop()
	}
}
