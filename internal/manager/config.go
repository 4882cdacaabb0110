package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 2 * time.Minute
)

// Device preferences accepted by ManagerConfig.DevicePreference.
const (
	PreferAuto        = "auto"
	PreferAccelerator = "accelerator"
	PreferCPU         = "cpu"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// ModelName is the pretrained model identifier passed to Loader.
	ModelName string
	Loader    Loader
	// Detector reports available hardware; DetectDevice when nil.
	Detector DeviceDetector
	// DevicePreference is auto, accelerator or cpu. Empty means auto.
	DevicePreference string
	MaxQueueDepth    int
	MaxWait          time.Duration
	Publisher        EventPublisher
	Logger           *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:      StateUnloaded,
		modelName:  cfg.ModelName,
		loader:     cfg.Loader,
		detector:   cfg.Detector,
		preference: cfg.DevicePreference,
		publisher:  cfg.Publisher,
		startTime:  time.Now(),
	}
	if m.detector == nil {
		m.detector = DetectDevice
	}
	if m.preference == "" {
		m.preference = PreferAuto
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	// Apply defaults if unset
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	m.baseCtx, m.cancelBase = context.WithCancel(context.Background())
	m.genCh = make(chan struct{}, 1)
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	return m
}
