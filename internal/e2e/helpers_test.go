package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"asrd/internal/audio"
	"asrd/internal/httpapi"
	"asrd/internal/manager"
	"asrd/internal/transcribe"
	"asrd/internal/whisper"
)

// fakeRuntime mimics whisper-cli: it writes "hello from <input basename>" to
// the -of path. FAKE_WHISPER_SLEEP delays each run.
const fakeRuntime = `#!/bin/sh
if [ "$1" = "--help" ]; then exit 0; fi
out=""
in=""
while [ $# -gt 0 ]; do
  case "$1" in
    -of) out="$2"; shift ;;
    -f) in="$2"; shift ;;
  esac
  shift
done
if [ -n "$FAKE_WHISPER_SLEEP" ]; then sleep "$FAKE_WHISPER_SLEEP"; fi
printf ' hello from %s \n' "$(basename "$in")" > "$out.txt"
`

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runtime stub needs a POSIX shell")
	}
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
}

// writeRuntime installs the stub at path.
func writeRuntime(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(fakeRuntime), 0o755); err != nil {
		t.Fatalf("write runtime: %v", err)
	}
}

type stack struct {
	srv     *httptest.Server
	mgr     *manager.Manager
	tempDir string
	runtime string
}

type stackOptions struct {
	maxQueueDepth int
	maxWait       time.Duration
	noRuntime     bool
}

// newStack wires the production components against the runtime stub and a
// custom model file, and serves them with httptest.
func newStack(t *testing.T, o stackOptions) *stack {
	t.Helper()
	requirePOSIX(t)
	dir := t.TempDir()
	rt := filepath.Join(dir, "whisper-cli")
	if !o.noRuntime {
		writeRuntime(t, rt)
	}
	model := filepath.Join(dir, "ggml-test.bin")
	if err := os.WriteFile(model, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	tempDir := filepath.Join(dir, "tmp")
	if err := os.Mkdir(tempDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	loader := &whisper.Loader{RuntimeBin: rt, ModelDir: dir, OutDir: tempDir, Logger: zerolog.Nop()}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelName:        model,
		Loader:           loader,
		DevicePreference: manager.PreferCPU,
		MaxQueueDepth:    o.maxQueueDepth,
		MaxWait:          o.maxWait,
	})
	svc := transcribe.NewService(mgr, audio.NewFFmpeg(), transcribe.Options{TempDir: tempDir})
	srv := httptest.NewServer(httpapi.NewMux(httpapi.Backend{Manager: mgr, Service: svc}))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, mgr: mgr, tempDir: tempDir, runtime: rt}
}

// toneWAV returns a short 16 kHz WAV, as a browser recorder might upload.
func toneWAV(t *testing.T) []byte {
	t.Helper()
	s := make([]int16, audio.SampleRate/2)
	for i := range s {
		s[i] = int16(6000 * math.Sin(2*math.Pi*300*float64(i)/audio.SampleRate))
	}
	p, err := audio.WriteTempWAV(t.TempDir(), audio.Clip{Samples: s})
	if err != nil {
		t.Fatalf("write wav: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return b
}

func postAudio(t *testing.T, base string, data []byte) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "recording.webm")
	if err != nil {
		t.Errorf("form file: %v", err)
		return 0, nil
	}
	fw.Write(data)
	mw.Close()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, base+"/transcribe", &buf)
	if err != nil {
		t.Errorf("new req: %v", err)
		return 0, nil
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("do req: %v", err)
		return 0, nil
	}
	defer resp.Body.Close()
	var out map[string]any
	b, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(b, &out); err != nil {
		t.Errorf("json: %v body=%s", err, b)
	}
	return resp.StatusCode, out
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}
