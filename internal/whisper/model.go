// Package whisper adapts a whisper.cpp command-line engine to the manager's
// Loader and Model contracts, and manages ggml model files on disk.
package whisper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"asrd/pkg/types"
)

const DefaultModel = "base"

// ModelSpec aliases the wire description so `asrd models` can print it as is.
type ModelSpec = types.ModelSpec

// ResolvedModel is a model reference mapped to a file on disk.
type ResolvedModel struct {
	Name          string
	Path          string
	URL           string
	SHA256        string
	NeedsDownload bool
	IsCustomPath  bool
}

const hfBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

var registry = map[string]ModelSpec{
	"tiny": {
		Name:     "tiny",
		FileName: "ggml-tiny.bin",
		URL:      hfBase + "ggml-tiny.bin",
		SHA256:   "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21",
	},
	"base": {
		Name:     "base",
		FileName: "ggml-base.bin",
		URL:      hfBase + "ggml-base.bin",
		SHA256:   "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe",
	},
	"small": {
		Name:     "small",
		FileName: "ggml-small.bin",
		URL:      hfBase + "ggml-small.bin",
		SHA256:   "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b",
	},
	"medium": {
		Name:     "medium",
		FileName: "ggml-medium.bin",
		URL:      hfBase + "ggml-medium.bin",
		SHA256:   "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208",
	},
	"large-v3": {
		Name:     "large-v3",
		FileName: "ggml-large-v3.bin",
		URL:      hfBase + "ggml-large-v3.bin",
		SHA256:   "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
	},
}

// ModelNames lists the registry in sorted order.
func ModelNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns the registry entries sorted by name.
func Models() []ModelSpec {
	out := make([]ModelSpec, 0, len(registry))
	for _, n := range ModelNames() {
		out = append(out, registry[n])
	}
	return out
}

func LookupModel(name string) (ModelSpec, bool) {
	m, ok := registry[name]
	return m, ok
}

// ResolveModel maps a registry name or a path to a ggml file. Named models
// live under modelDir and may still need a download; custom paths must exist.
func ResolveModel(ref, modelDir string) (ResolvedModel, error) {
	if strings.TrimSpace(ref) == "" {
		ref = DefaultModel
	}
	if m, ok := LookupModel(ref); ok {
		if strings.TrimSpace(modelDir) == "" {
			return ResolvedModel{}, errors.New("model directory must not be empty for named model")
		}
		p := filepath.Join(modelDir, m.FileName)
		_, statErr := os.Stat(p)
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return ResolvedModel{}, fmt.Errorf("stat model path: %w", statErr)
		}
		return ResolvedModel{
			Name:          m.Name,
			Path:          p,
			URL:           m.URL,
			SHA256:        m.SHA256,
			NeedsDownload: errors.Is(statErr, os.ErrNotExist),
		}, nil
	}
	if !looksLikePath(ref) {
		return ResolvedModel{}, fmt.Errorf("unknown model %q (known models: %s)", ref, strings.Join(ModelNames(), ", "))
	}
	p := filepath.Clean(ref)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ResolvedModel{}, fmt.Errorf("custom model path does not exist: %s", p)
		}
		return ResolvedModel{}, fmt.Errorf("stat custom model path: %w", err)
	}
	return ResolvedModel{Name: filepath.Base(p), Path: p, IsCustomPath: true}, nil
}

func looksLikePath(ref string) bool {
	return strings.ContainsRune(ref, os.PathSeparator) || strings.HasSuffix(strings.ToLower(ref), ".bin")
}
