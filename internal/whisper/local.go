package whisper

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalModel is a ggml weights file found in the model directory.
type LocalModel struct {
	// Name is the registry name for known files, otherwise the file name.
	Name      string
	Path      string
	SizeBytes int64
	Known     bool
}

// ScanDir lists *.bin files in dir, matching known file names to registry
// entries. A missing directory yields no models.
func ScanDir(dir string) ([]LocalModel, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	byFile := make(map[string]string, len(registry))
	for name, m := range registry {
		byFile[m.FileName] = name
	}
	var out []LocalModel
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".bin") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		lm := LocalModel{Name: e.Name(), Path: filepath.Join(abs, e.Name()), SizeBytes: info.Size()}
		if n, ok := byFile[e.Name()]; ok {
			lm.Name, lm.Known = n, true
		}
		out = append(out, lm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
