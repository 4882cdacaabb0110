package manager

import (
	"time"

	"asrd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Device: m.device, Err: m.err, LoadedAt: m.loadedAt}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		Model:         m.modelName,
		State:         string(m.state),
		Device:        string(m.device),
		LastError:     m.err,
		LoadAttempts:  m.loadAttempts,
		QueueLen:      len(m.queueCh),
		Inflight:      len(m.genCh),
		MaxQueueDepth: cap(m.queueCh),
		UptimeSeconds: int64(time.Since(m.startTime) / time.Second),
	}
	if !m.loadedAt.IsZero() {
		resp.LoadedAtUnix = m.loadedAt.Unix()
	}
	return resp
}
