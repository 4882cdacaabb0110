package bootstrap

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckAllPresent(t *testing.T) {
	look := func(file string) (string, error) { return "/usr/bin/" + file, nil }
	found, missing := Check([]Requirement{FFmpegRequirement("")}, look)
	if len(missing) != 0 {
		t.Fatalf("unexpected missing: %v", missing)
	}
	if found["audio decoder"] != "/usr/bin/ffmpeg" {
		t.Fatalf("found=%v", found)
	}
}

func TestCheckMissingNamesRemediation(t *testing.T) {
	look := func(file string) (string, error) { return "", errors.New("executable file not found in $PATH") }
	_, missing := Check([]Requirement{FFmpegRequirement("/opt/ffmpeg/bin/ffmpeg")}, look)
	if len(missing) != 1 {
		t.Fatalf("missing=%v", missing)
	}
	msg := missing[0].Error()
	if !strings.Contains(msg, "audio decoder") || !strings.Contains(msg, "/opt/ffmpeg/bin/ffmpeg") || !strings.Contains(msg, "ffmpeg") {
		t.Fatalf("diagnostic lacks detail: %q", msg)
	}
	if missing[0].Remediation == "" {
		t.Fatalf("no remediation")
	}
}

func TestRemediationPerOS(t *testing.T) {
	if !strings.Contains(ffmpegRemediation("darwin"), "brew") {
		t.Fatalf("darwin remediation")
	}
	if !strings.Contains(ffmpegRemediation("linux"), "apt-get") {
		t.Fatalf("linux remediation")
	}
	if !strings.Contains(ffmpegRemediation("windows"), "winget") {
		t.Fatalf("windows remediation")
	}
}
