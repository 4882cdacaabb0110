package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeModel echoes the input paths as transcripts.
type fakeModel struct {
	mu     sync.Mutex
	calls  int
	active int32
	maxAct int32
	delay  time.Duration
	err    error
	closed bool
}

func (f *fakeModel) Transcribe(ctx context.Context, paths []string) ([]string, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		cur := atomic.LoadInt32(&f.maxAct)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxAct, cur, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = "text:" + p
	}
	return out, nil
}

func (f *fakeModel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// countingLoader counts Load calls and can be made to fail or block.
type countingLoader struct {
	calls   int32
	fail    atomic.Bool
	delay   time.Duration
	model   *fakeModel
	devices []Device
	mu      sync.Mutex
}

func (l *countingLoader) Load(ctx context.Context, name string, dev Device) (Model, error) {
	atomic.AddInt32(&l.calls, 1)
	l.mu.Lock()
	l.devices = append(l.devices, dev)
	l.mu.Unlock()
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.fail.Load() {
		return nil, errors.New("download failed: connection refused")
	}
	if l.model == nil {
		l.model = &fakeModel{}
	}
	return l.model, nil
}

func (l *countingLoader) Calls() int { return int(atomic.LoadInt32(&l.calls)) }

func cpuDetector(context.Context) Device   { return DeviceCPU }
func accelDetector(context.Context) Device { return DeviceAccelerator }
