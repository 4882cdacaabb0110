package manager

import "context"

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	Model        string `json:"model"`
	Loaded       bool   `json:"loaded"`
	Device       Device `json:"device"`
	RuntimeFound bool   `json:"runtime_found"`
	RuntimePath  string `json:"runtime_path,omitempty"`
	ModelPresent bool   `json:"model_present"`
	ModelPath    string `json:"model_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SanityChecker is implemented by loaders that can inspect their runtime
// without loading a model.
type SanityChecker interface {
	Sanity(ctx context.Context, name string, r *SanityReport)
}

// SanityCheck validates that required external dependencies are available.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck(ctx context.Context) SanityReport {
	r := SanityReport{Model: m.modelName, Loaded: m.Loaded(), Device: m.Device()}
	if r.Device == "" {
		r.Device = m.resolveDevice(ctx)
	}
	sc, ok := m.loader.(SanityChecker)
	if !ok {
		return r
	}
	sc.Sanity(ctx, m.modelName, &r)
	return r
}
