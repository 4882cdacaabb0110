package manager

import (
	"context"
	"time"
)

// State represents lifecycle state of the model.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Device is the compute target a model is bound to.
type Device string

const (
	DeviceAccelerator Device = "accelerator"
	DeviceCPU         Device = "cpu"
)

// Model is a loaded ASR model. Transcribe returns one transcript per input
// path, in order. Implementations must be safe to call from any goroutine;
// the Manager never calls Transcribe concurrently.
type Model interface {
	Transcribe(ctx context.Context, paths []string) ([]string, error)
	// Close releases resources associated with the model.
	Close() error
}

// Loader instantiates the named pretrained model bound to device, ready for
// inference only. It may download weights and allocate device memory.
type Loader interface {
	Load(ctx context.Context, name string, device Device) (Model, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, name string, device Device) (Model, error)

func (f LoaderFunc) Load(ctx context.Context, name string, device Device) (Model, error) {
	return f(ctx, name, device)
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State    State
	Device   Device
	Err      string
	LoadedAt time.Time
}
