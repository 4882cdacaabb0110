package manager

import (
	"context"
	"fmt"
)

// Transcribe runs the loaded model over paths, one transcript per path. It
// does not load the model; callers run EnsureLoaded first. Access is admitted
// through a bounded FIFO queue in front of a single in-flight slot.
func (m *Manager) Transcribe(ctx context.Context, paths []string) ([]string, error) {
	m.mu.RLock()
	mdl := m.model
	m.mu.RUnlock()
	if mdl == nil {
		return nil, ErrNotLoaded
	}
	release, err := m.beginInference(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	out, err := runModel(ctx, mdl, paths)
	if err != nil {
		return nil, err
	}
	if len(out) != len(paths) {
		return nil, fmt.Errorf("model returned %d transcripts for %d inputs", len(out), len(paths))
	}
	return out, nil
}

func runModel(ctx context.Context, mdl Model, paths []string) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("inference panic: %v", r)
		}
	}()
	return mdl.Transcribe(ctx, paths)
}
