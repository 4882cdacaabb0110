package manager

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EnsureLoaded loads the model on first use and reports whether a model is
// available. It is idempotent and cheap once loaded. Concurrent callers share
// one in-flight load, which runs on the manager's context rather than the
// caller's: a caller that gives up stops waiting without aborting the load for
// the others. A failed load leaves the manager unloaded and the next call makes
// one new attempt.
func (m *Manager) EnsureLoaded(ctx context.Context) bool {
	if m.Loaded() {
		return true
	}
	ch := m.loadGroup.DoChan("load", func() (any, error) {
		// A load may have finished between the fast path and joining the group.
		if m.Loaded() {
			return true, nil
		}
		return m.load(), nil
	})
	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok
	case <-ctx.Done():
		m.log.Debug().Err(ctx.Err()).Str("model", m.modelName).Msg("caller stopped waiting for model load")
		return false
	}
}

func (m *Manager) load() bool {
	ctx := m.baseCtx
	startTs := time.Now()
	dev := m.resolveDevice(ctx)
	m.mu.Lock()
	m.state = StateLoading
	m.err = ""
	m.loadAttempts++
	attempt := m.loadAttempts
	m.mu.Unlock()

	m.log.Info().Str("model", m.modelName).Str("device", string(dev)).Uint64("attempt", attempt).Msg("model load start")
	m.pub().Publish(Event{Name: "load_start", Model: m.modelName, Fields: map[string]any{"device": string(dev), "attempt": attempt}})

	mdl, err := m.callLoader(ctx, dev)
	if err != nil {
		m.mu.Lock()
		m.state = StateError
		m.err = err.Error()
		m.mu.Unlock()
		modelLoadsTotal.WithLabelValues("error").Inc()
		m.log.Error().Err(err).
			Str("model", m.modelName).
			Str("device", string(dev)).
			Uint64("attempt", attempt).
			Bool("dependency_unavailable", IsDependencyUnavailable(err)).
			Dur("dur", time.Since(startTs)).
			Msg("model load failed; will retry on next request")
		m.pub().Publish(Event{Name: "load_error", Model: m.modelName, Fields: map[string]any{"error": err.Error(), "attempt": attempt}})
		return false
	}

	m.mu.Lock()
	m.model = mdl
	m.device = dev
	m.state = StateReady
	m.loadedAt = time.Now()
	m.mu.Unlock()
	modelLoadsTotal.WithLabelValues("ok").Inc()
	m.log.Info().Str("model", m.modelName).Str("device", string(dev)).Dur("dur", time.Since(startTs)).Msg("model loaded")
	m.pub().Publish(Event{Name: "load_ready", Model: m.modelName, Fields: map[string]any{"device": string(dev), "dur_ms": int(time.Since(startTs) / time.Millisecond)}})
	return true
}

// callLoader runs the loader, converting a panic into an error so a broken
// runtime cannot take the process down.
func (m *Manager) callLoader(ctx context.Context, dev Device) (mdl Model, err error) {
	if m.loader == nil {
		return nil, ErrDependencyUnavailable("no model loader configured")
	}
	defer func() {
		if r := recover(); r != nil {
			mdl, err = nil, fmt.Errorf("model loader panic: %v", r)
		}
	}()
	mdl, err = m.loader.Load(ctx, m.modelName, dev)
	if err == nil && mdl == nil {
		err = errors.New("model loader returned no model")
	}
	return mdl, err
}
