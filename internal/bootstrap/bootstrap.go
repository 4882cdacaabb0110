// Package bootstrap verifies the lightweight capabilities the service needs
// before it binds a listener. The ASR runtime is not checked here; the model
// manager discovers it lazily so the listener starts quickly.
package bootstrap

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Requirement names an external executable the process cannot serve without.
type Requirement struct {
	Name        string
	Binary      string
	Remediation string
}

// MissingDependency is reported for each unmet Requirement.
type MissingDependency struct {
	Name        string
	Binary      string
	Remediation string
	Err         error
}

func (m MissingDependency) Error() string {
	return fmt.Sprintf("required dependency %s (%s) not available: %v; install it with: %s", m.Name, m.Binary, m.Err, m.Remediation)
}

// LookPathFunc resolves an executable; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// FFmpegRequirement is the audio decoding capability.
func FFmpegRequirement(binary string) Requirement {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return Requirement{Name: "audio decoder", Binary: binary, Remediation: ffmpegRemediation(runtime.GOOS)}
}

func ffmpegRemediation(goos string) string {
	switch goos {
	case "darwin":
		return "brew install ffmpeg"
	case "windows":
		return "winget install --id=Gyan.FFmpeg -e"
	default:
		return "sudo apt-get install -y ffmpeg"
	}
}

// Check returns one MissingDependency per requirement that cannot be resolved,
// and the resolved paths of those that can.
func Check(reqs []Requirement, lookPath LookPathFunc) (map[string]string, []MissingDependency) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	found := make(map[string]string, len(reqs))
	var missing []MissingDependency
	for _, r := range reqs {
		p, err := lookPath(r.Binary)
		if err != nil {
			missing = append(missing, MissingDependency{Name: r.Name, Binary: r.Binary, Remediation: r.Remediation, Err: err})
			continue
		}
		found[r.Name] = p
	}
	return found, missing
}
