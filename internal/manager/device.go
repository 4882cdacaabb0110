package manager

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DeviceDetector reports the best available compute device.
type DeviceDetector func(ctx context.Context) Device

// DetectDevice prefers an accelerator when present: Apple silicon (Metal) or an
// NVIDIA GPU visible to nvidia-smi. CUDA_VISIBLE_DEVICES set to "" or -1 hides
// GPUs, matching CUDA runtime semantics.
func DetectDevice(ctx context.Context) Device {
	if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
		if v = strings.TrimSpace(v); v == "" || v == "-1" {
			return DeviceCPU
		}
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return DeviceAccelerator
	}
	if hasNvidiaGPU(ctx) {
		return DeviceAccelerator
	}
	return DeviceCPU
}

func hasNvidiaGPU(ctx context.Context) bool {
	bin, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, "-L").Output()
	if err != nil {
		return false
	}
	return bytes.Contains(out, []byte("GPU "))
}

// resolveDevice applies the configured preference; only "auto" consults the detector.
func (m *Manager) resolveDevice(ctx context.Context) Device {
	switch m.preference {
	case PreferCPU:
		return DeviceCPU
	case PreferAccelerator:
		return DeviceAccelerator
	default:
		return m.detector(ctx)
	}
}
