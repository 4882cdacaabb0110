package manager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type Manager struct {
	// loadGroup collapses concurrent EnsureLoaded calls into one load.
	loadGroup singleflight.Group
	// baseCtx bounds loads; Close cancels it.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu           sync.RWMutex
	state        State
	model        Model
	device       Device
	err          string
	loadedAt     time.Time
	loadAttempts uint64

	modelName  string
	loader     Loader
	detector   DeviceDetector
	preference string
	publisher  EventPublisher
	log        zerolog.Logger
	startTime  time.Time

	// Admission: queue slots in front of a single in-flight slot
	maxQueueDepth int
	maxWait       time.Duration
	genCh         chan struct{}
	queueCh       chan struct{}
}

func New(modelName string, loader Loader) *Manager {
	// Delegate to NewWithConfig to centralize defaults and option parsing
	return NewWithConfig(ManagerConfig{ModelName: modelName, Loader: loader})
}

// ModelName returns the configured model identifier.
func (m *Manager) ModelName() string { return m.modelName }

// Loaded reports whether the model handle is set. It never triggers a load.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model != nil
}

// Ready is an alias of Loaded for readiness probes.
func (m *Manager) Ready() bool { return m.Loaded() }

// Device returns the device chosen at load time, or "" before the first load.
func (m *Manager) Device() Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

// LoadAttempts returns how many times the loader has been invoked.
func (m *Manager) LoadAttempts() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadAttempts
}

// SetEventPublisher replaces the event sink. Nil restores the no-op sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

func (m *Manager) pub() EventPublisher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.publisher
}

// Close aborts an in-flight load and releases the model at process shutdown.
// The handle is not cleared: the model is never reloaded once set.
func (m *Manager) Close() error {
	m.cancelBase()
	m.mu.RLock()
	mdl := m.model
	m.mu.RUnlock()
	if mdl == nil {
		return nil
	}
	return mdl.Close()
}
