package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"asrd/internal/common/fsutil"
	"asrd/internal/manager"
)

// Engine runs whisper-cli once per audio file. It satisfies manager.Model.
type Engine struct {
	Executable string
	ModelPath  string
	Device     manager.Device
	Threads    int
	Language   string
	// OutDir receives the engine's transcript files; os.TempDir when empty.
	OutDir string
	Logger zerolog.Logger
}

var _ manager.Model = (*Engine)(nil)

// Transcribe returns one transcript per path, in order.
func (e *Engine) Transcribe(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		text, err := e.transcribeOne(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// Close is a no-op: every call spawns a fresh process.
func (e *Engine) Close() error { return nil }

func (e *Engine) args(audioPath, outBase string) []string {
	args := []string{"-m", e.ModelPath, "-f", audioPath, "-nt", "-np", "-otxt", "-of", outBase}
	if lang := strings.TrimSpace(e.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}
	if e.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(e.Threads))
	}
	if e.Device == manager.DeviceCPU {
		args = append(args, "-ng")
	}
	return args
}

func (e *Engine) transcribeOne(ctx context.Context, audioPath string) (string, error) {
	if strings.TrimSpace(audioPath) == "" {
		return "", errors.New("audio path is required")
	}
	dir := e.OutDir
	if dir == "" {
		dir = os.TempDir()
	}
	outBase := filepath.Join(dir, "asrd-out-"+uuid.NewString())
	txtOut := outBase + ".txt"
	defer func() {
		if err := fsutil.RemoveIfExists(txtOut); err != nil {
			e.Logger.Warn().Err(err).Str("path", txtOut).Msg("remove transcript file")
		}
	}()

	args := e.args(audioPath, outBase)
	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	e.Logger.Debug().Str("engine", e.Executable).Strs("args", args).Msg("running whisper engine")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("whisper transcribe: %w", ctx.Err())
		}
		return "", classifyRunError(e.Executable, err, stderr.String())
	}
	b, err := os.ReadFile(txtOut)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func classifyRunError(exe string, err error, stderr string) error {
	text := strings.TrimSpace(stderr)
	switch {
	case isMissingSharedLibraryError(text):
		return manager.ErrDependencyUnavailable(fmt.Sprintf("whisper engine at %s is missing required shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", exe, text))
	case isIllegalInstructionError(text) || isIllegalInstructionError(err.Error()):
		return manager.ErrDependencyUnavailable("whisper engine crashed with an illegal CPU instruction; set ASRD_RUNTIME_BIN to a whisper-cli built for this CPU")
	}
	if len(text) > 300 {
		text = text[:300] + "..."
	}
	return fmt.Errorf("whisper transcribe failed: %w (%s)", err, text)
}

func isMissingSharedLibraryError(stderr string) bool {
	v := strings.ToLower(stderr)
	if v == "" {
		return false
	}
	for _, p := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}

func isIllegalInstructionError(s string) bool {
	return strings.Contains(strings.ToLower(s), "illegal instruction")
}
