package whisper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// runtimeCandidates are executable names whisper.cpp has shipped under.
var runtimeCandidates = []string{"whisper-cli", "whisper-cpp", "whisper"}

// ResolveRuntime returns the path of the whisper.cpp executable: explicit
// when set, otherwise the first candidate found on $PATH.
func ResolveRuntime(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if p, err := exec.LookPath(explicit); err == nil {
			return p, nil
		}
		if err := ensureExecutable(explicit); err != nil {
			return "", fmt.Errorf("runtime %s is not executable: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range runtimeCandidates {
		if p, err := exec.LookPath(binaryName(name)); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("whisper.cpp runtime not found on PATH (tried %s); install whisper.cpp or set ASRD_RUNTIME_BIN", strings.Join(runtimeCandidates, ", "))
}

// probeRuntime runs the executable with --help to surface loader failures
// (missing shared libraries, unsupported CPU) before the first request.
func probeRuntime(ctx context.Context, exe string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, exe, "--help")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); !ok {
		return fmt.Errorf("start %s: %w", exe, err)
	}
	// Some builds exit non-zero after printing usage; only loader failures count.
	text := out.String()
	if isMissingSharedLibraryError(text) || isIllegalInstructionError(text) || isIllegalInstructionError(err.Error()) {
		return classifyRunError(exe, err, text)
	}
	return nil
}

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
