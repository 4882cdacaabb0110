package whisper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"asrd/internal/common/fsutil"
	"asrd/internal/manager"
)

// Loader resolves the whisper.cpp runtime and model weights and returns an
// Engine bound to the requested device. It implements manager.Loader and
// manager.SanityChecker.
type Loader struct {
	RuntimeBin   string
	ModelDir     string
	AutoDownload bool
	Threads      int
	Language     string
	OutDir       string
	NoProgress   bool
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

var (
	_ manager.Loader        = (*Loader)(nil)
	_ manager.SanityChecker = (*Loader)(nil)
)

// Load implements manager.Loader.
func (l *Loader) Load(ctx context.Context, name string, device manager.Device) (manager.Model, error) {
	exe, err := ResolveRuntime(l.RuntimeBin)
	if err != nil {
		return nil, manager.ErrDependencyUnavailable(err.Error())
	}
	if err := probeRuntime(ctx, exe); err != nil {
		if manager.IsDependencyUnavailable(err) {
			return nil, err
		}
		return nil, manager.ErrDependencyUnavailable(err.Error())
	}

	rm, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	if rm.NeedsDownload {
		if !l.AutoDownload {
			return nil, manager.ErrDependencyUnavailable(fmt.Sprintf("model %q not found at %s and auto_download is off; run `asrd models pull %s`", rm.Name, rm.Path, rm.Name))
		}
		l.Logger.Info().Str("model", rm.Name).Str("url", rm.URL).Str("dest", rm.Path).Msg("downloading model weights")
		if err := l.Fetch(ctx, rm); err != nil {
			return nil, fmt.Errorf("download model %s: %w", rm.Name, err)
		}
	}

	l.Logger.Info().Str("runtime", exe).Str("model_path", rm.Path).Str("device", string(device)).Msg("whisper runtime ready")
	return &Engine{
		Executable: exe,
		ModelPath:  rm.Path,
		Device:     device,
		Threads:    l.Threads,
		Language:   l.Language,
		OutDir:     l.OutDir,
		Logger:     l.Logger,
	}, nil
}

// Fetch downloads a resolved named model into place.
func (l *Loader) Fetch(ctx context.Context, rm ResolvedModel) error {
	log := l.Logger
	return DownloadFile(ctx, DownloadOptions{
		URL:            rm.URL,
		Destination:    rm.Path,
		ExpectedSHA256: rm.SHA256,
		NoProgress:     l.NoProgress,
		HTTPClient:     l.HTTPClient,
		Logger:         &log,
	})
}

// Resolve maps name to a model file under the configured directory.
func (l *Loader) Resolve(name string) (ResolvedModel, error) { return l.resolve(name) }

func (l *Loader) resolve(name string) (ResolvedModel, error) {
	dir, err := fsutil.ExpandHome(l.ModelDir)
	if err != nil {
		return ResolvedModel{}, err
	}
	rm, err := ResolveModel(name, dir)
	if err != nil {
		return ResolvedModel{}, manager.ErrDependencyUnavailable(err.Error())
	}
	return rm, nil
}

// Sanity implements manager.SanityChecker without downloading anything.
func (l *Loader) Sanity(ctx context.Context, name string, r *manager.SanityReport) {
	exe, err := ResolveRuntime(l.RuntimeBin)
	if err != nil {
		r.Error = err.Error()
	} else {
		r.RuntimeFound = true
		r.RuntimePath = exe
		if err := probeRuntime(ctx, exe); err != nil {
			r.RuntimeFound = false
			r.Error = err.Error()
		}
	}
	rm, err := l.resolve(name)
	if err != nil {
		if r.Error == "" {
			r.Error = err.Error()
		}
		return
	}
	r.ModelPath = rm.Path
	r.ModelPresent = !rm.NeedsDownload
}
