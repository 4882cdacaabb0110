package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"asrd/internal/audio"
	"asrd/internal/common/fsutil"
	"asrd/internal/manager"
)

// wavModel checks that every path is a readable temp WAV at call time.
type wavModel struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (m *wavModel) Transcribe(ctx context.Context, paths []string) ([]string, error) {
	m.mu.Lock()
	m.paths = append(m.paths, paths...)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		out[i] = fmt.Sprintf("hello (%d bytes)", st.Size())
	}
	return out, nil
}

func (m *wavModel) Close() error { return nil }

// fakeDecoder returns one second of tone unless the input starts with "bad"
// or "quiet".
type fakeDecoder struct{ calls atomic.Int32 }

func (d *fakeDecoder) Decode(ctx context.Context, data []byte) (audio.Clip, error) {
	d.calls.Add(1)
	switch {
	case bytes.HasPrefix(data, []byte("bad")):
		return audio.Clip{}, fmt.Errorf("%w: no audio stream found", audio.ErrDecode)
	case bytes.HasPrefix(data, []byte("quiet")):
		return audio.Clip{Samples: make([]int16, audio.SampleRate)}, nil
	}
	s := make([]int16, audio.SampleRate)
	for i := range s {
		if i%2 == 0 {
			s[i] = 8000
		} else {
			s[i] = -8000
		}
	}
	return audio.Clip{Samples: s}, nil
}

func newManager(mdl manager.Model, loadErr error) *manager.Manager {
	return manager.NewWithConfig(manager.ManagerConfig{
		ModelName: "base",
		Loader: manager.LoaderFunc(func(ctx context.Context, name string, dev manager.Device) (manager.Model, error) {
			if loadErr != nil {
				return nil, loadErr
			}
			return mdl, nil
		}),
		DevicePreference: manager.PreferCPU,
	})
}

func tempDirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	if left := tempDirEntries(t, dir); len(left) != 0 {
		t.Fatalf("temp files left behind: %v", left)
	}
}

func TestRunSuccessRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	mdl := &wavModel{}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: dir})

	res := svc.Run(context.Background(), strings.NewReader("RIFF...."))
	if !res.OK() {
		t.Fatalf("err: %v", res.Err)
	}
	if !strings.HasPrefix(res.Text, "hello") {
		t.Fatalf("text=%q", res.Text)
	}
	if len(mdl.paths) != 1 || !strings.HasPrefix(mdl.paths[0], dir) {
		t.Fatalf("paths=%v", mdl.paths)
	}
	requireEmptyDir(t, dir)
}

func TestRunModelNotLoaded(t *testing.T) {
	dec := &fakeDecoder{}
	svc := NewService(newManager(nil, manager.ErrDependencyUnavailable("whisper-cli not found")), dec, Options{TempDir: t.TempDir()})

	res := svc.Run(context.Background(), strings.NewReader("RIFF"))
	if res.OK() {
		t.Fatalf("expected failure")
	}
	if got := res.Err.Error(); got != "Model not loaded. Check server logs for details." {
		t.Fatalf("err=%q", got)
	}
	if dec.calls.Load() != 0 {
		t.Fatalf("decoded without a model")
	}
}

func TestRunRetriesLoadOnNextRequest(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	mdl := &wavModel{}
	m := manager.NewWithConfig(manager.ManagerConfig{
		ModelName: "base",
		Loader: manager.LoaderFunc(func(ctx context.Context, name string, dev manager.Device) (manager.Model, error) {
			if fail.Load() {
				return nil, errors.New("weights unavailable")
			}
			return mdl, nil
		}),
		DevicePreference: manager.PreferCPU,
	})
	svc := NewService(m, &fakeDecoder{}, Options{TempDir: t.TempDir()})

	if svc.Run(context.Background(), strings.NewReader("x")).OK() {
		t.Fatalf("first request should fail")
	}
	fail.Store(false)
	if res := svc.Run(context.Background(), strings.NewReader("x")); !res.OK() {
		t.Fatalf("second request: %v", res.Err)
	}
	if m.LoadAttempts() != 2 {
		t.Fatalf("attempts=%d", m.LoadAttempts())
	}
}

func TestRunCanceledRequestDoesNotAbortLoad(t *testing.T) {
	var loads atomic.Int32
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelName: "base",
		Loader: manager.LoaderFunc(func(ctx context.Context, name string, dev manager.Device) (manager.Model, error) {
			loads.Add(1)
			select {
			case <-time.After(100 * time.Millisecond):
				return &wavModel{}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
		DevicePreference: manager.PreferCPU,
	})
	svc := NewService(mgr, &fakeDecoder{}, Options{TempDir: t.TempDir()})

	ctx1, cancel1 := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var res1, res2 Result
	wg.Add(2)
	go func() { defer wg.Done(); res1 = svc.Run(ctx1, strings.NewReader("speech")) }()
	go func() { defer wg.Done(); res2 = svc.Run(context.Background(), strings.NewReader("speech")) }()
	time.Sleep(10 * time.Millisecond)
	cancel1()
	wg.Wait()

	if res1.OK() {
		t.Fatalf("canceled request should fail")
	}
	if !res2.OK() {
		t.Fatalf("second request: %v", res2.Err)
	}
	if loads.Load() != 1 {
		t.Fatalf("loads=%d want 1", loads.Load())
	}
}

func TestRunDecodeError(t *testing.T) {
	dir := t.TempDir()
	mdl := &wavModel{}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: dir})

	res := svc.Run(context.Background(), strings.NewReader("bad bytes"))
	if res.OK() || !errors.Is(res.Err, audio.ErrDecode) {
		t.Fatalf("err=%v", res.Err)
	}
	if len(mdl.paths) != 0 {
		t.Fatalf("model called after decode failure: %v", mdl.paths)
	}
	requireEmptyDir(t, dir)
}

func TestRunInferenceErrorStillCleansUp(t *testing.T) {
	dir := t.TempDir()
	mdl := &wavModel{err: errors.New("engine crashed")}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: dir})

	res := svc.Run(context.Background(), strings.NewReader("ok"))
	if res.OK() || !strings.Contains(res.Err.Error(), "engine crashed") {
		t.Fatalf("err=%v", res.Err)
	}
	requireEmptyDir(t, dir)
}

func TestRunUploadLimit(t *testing.T) {
	svc := NewService(newManager(&wavModel{}, nil), &fakeDecoder{}, Options{TempDir: t.TempDir(), MaxUploadBytes: 8})

	res := svc.Run(context.Background(), strings.NewReader(strings.Repeat("a", 9)))
	if res.OK() || !errors.Is(res.Err, fsutil.ErrIOLimitReached) {
		t.Fatalf("oversize err=%v", res.Err)
	}
	if res = svc.Run(context.Background(), strings.NewReader(strings.Repeat("a", 8))); !res.OK() {
		t.Fatalf("at limit: %v", res.Err)
	}
}

func TestRunSkipSilence(t *testing.T) {
	mdl := &wavModel{}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: t.TempDir(), SkipSilence: true, SilenceThresholdDBFS: -50})

	res := svc.Run(context.Background(), strings.NewReader("quiet"))
	if !res.OK() || res.Text != "" {
		t.Fatalf("silent clip: text=%q err=%v", res.Text, res.Err)
	}
	if len(mdl.paths) != 0 {
		t.Fatalf("model called for silence")
	}

	res = svc.Run(context.Background(), strings.NewReader("speech"))
	if !res.OK() || res.Text == "" {
		t.Fatalf("speech: text=%q err=%v", res.Text, res.Err)
	}
}

func TestRunSilenceTranscribedByDefault(t *testing.T) {
	mdl := &wavModel{}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: t.TempDir()})
	if res := svc.Run(context.Background(), strings.NewReader("quiet")); !res.OK() {
		t.Fatalf("err: %v", res.Err)
	}
	if len(mdl.paths) != 1 {
		t.Fatalf("paths=%v", mdl.paths)
	}
}

func TestRunConcurrentRequestsUseDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	mdl := &wavModel{}
	svc := NewService(newManager(mdl, nil), &fakeDecoder{}, Options{TempDir: dir})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := svc.Run(context.Background(), strings.NewReader("speech")); !res.OK() {
				errs <- res.Err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("request failed: %v", err)
	}

	seen := map[string]bool{}
	for _, p := range mdl.paths {
		if seen[p] {
			t.Fatalf("temp path reused: %s", p)
		}
		seen[p] = true
	}
	if len(seen) != n {
		t.Fatalf("distinct paths=%d want %d", len(seen), n)
	}
	requireEmptyDir(t, dir)
}

func TestRunConcurrentBeforeLoadLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelName: "base",
		Loader: manager.LoaderFunc(func(ctx context.Context, name string, dev manager.Device) (manager.Model, error) {
			loads.Add(1)
			time.Sleep(20 * time.Millisecond)
			return &wavModel{}, nil
		}),
		DevicePreference: manager.PreferCPU,
	})
	svc := NewService(mgr, &fakeDecoder{}, Options{TempDir: t.TempDir()})

	const k = 8
	var wg sync.WaitGroup
	var failed atomic.Int32
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !svc.Run(context.Background(), strings.NewReader("speech")).OK() {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()
	if failed.Load() != 0 {
		t.Fatalf("%d requests failed", failed.Load())
	}
	if loads.Load() != 1 || mgr.LoadAttempts() != 1 {
		t.Fatalf("loads=%d attempts=%d", loads.Load(), mgr.LoadAttempts())
	}
}

func TestRunSequentialBurstLeavesTempDirEmpty(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(newManager(&wavModel{}, nil), &fakeDecoder{}, Options{TempDir: dir})
	for i := 0; i < 10; i++ {
		if res := svc.Run(context.Background(), strings.NewReader("speech")); !res.OK() {
			t.Fatalf("request %d: %v", i, res.Err)
		}
	}
	requireEmptyDir(t, dir)
}

func TestResult(t *testing.T) {
	if !Success("hi").OK() {
		t.Fatalf("success not ok")
	}
	r := Failure(errors.New("x"))
	if r.OK() || r.Text != "" {
		t.Fatalf("failure=%+v", r)
	}
}
