package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"asrd/internal/audio"
	"asrd/internal/common/fsutil"
	"asrd/internal/manager"
)

// ModelProvider is the slice of manager.Manager the pipeline needs.
type ModelProvider interface {
	EnsureLoaded(ctx context.Context) bool
	Transcribe(ctx context.Context, paths []string) ([]string, error)
}

// Decoder turns arbitrary audio bytes into a 16 kHz mono clip.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (audio.Clip, error)
}

// Options tunes a Service. Zero values keep the permissive defaults:
// unlimited uploads, no inference timeout, silence is transcribed.
type Options struct {
	TempDir              string
	MaxUploadBytes       int64
	InferTimeout         time.Duration
	SkipSilence          bool
	SilenceThresholdDBFS float64
	Logger               *zerolog.Logger
}

// Service is the transcription pipeline shared by all requests.
type Service struct {
	models  ModelProvider
	decoder Decoder
	opts    Options
	log     zerolog.Logger
}

func NewService(models ModelProvider, decoder Decoder, opts Options) *Service {
	s := &Service{models: models, decoder: decoder, opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "transcribe").Logger()
	}
	return s
}

// Run ensures the model is loaded, then decodes upload, writes it as a temp
// WAV, transcribes it and removes the temp file before returning.
func (s *Service) Run(ctx context.Context, upload io.Reader) Result {
	start := time.Now()
	res, outcome := s.run(ctx, upload)
	transcriptionsTotal.WithLabelValues(outcome).Inc()
	transcriptionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if res.Err != nil {
		s.log.Error().Err(res.Err).Str("outcome", outcome).Dur("dur", time.Since(start)).Msg("transcription failed")
	} else {
		s.log.Info().Str("outcome", outcome).Int("chars", len(res.Text)).Dur("dur", time.Since(start)).Msg("transcription done")
	}
	return res
}

func (s *Service) run(ctx context.Context, upload io.Reader) (Result, string) {
	if !s.models.EnsureLoaded(ctx) {
		return Failure(manager.ErrNotLoaded), outcomeNotLoaded
	}

	data, err := fsutil.ReadAllLimit(upload, s.opts.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, fsutil.ErrIOLimitReached) {
			return Failure(fmt.Errorf("upload exceeds %d bytes: %w", s.opts.MaxUploadBytes, err)), outcomeTooLarge
		}
		return Failure(fmt.Errorf("read upload: %w", err)), outcomeError
	}

	clip, err := s.decoder.Decode(ctx, data)
	if err != nil {
		return Failure(err), outcomeDecodeError
	}
	if s.opts.SkipSilence {
		if silent, m := audio.IsSilent(clip, s.opts.SilenceThresholdDBFS); silent {
			s.log.Debug().Float64("rms_dbfs", m.RMSdBFS).Float64("peak_dbfs", m.PeakdBFS).Msg("silent clip, skipping inference")
			return Success(""), outcomeSilent
		}
	}

	path, err := audio.WriteTempWAV(s.opts.TempDir, clip)
	if err != nil {
		return Failure(err), outcomeError
	}
	defer s.cleanup(path)

	ictx := ctx
	if s.opts.InferTimeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, s.opts.InferTimeout)
		defer cancel()
	}
	texts, err := s.models.Transcribe(ictx, []string{path})
	if err != nil {
		if manager.IsTooBusy(err) {
			return Failure(err), outcomeBusy
		}
		return Failure(fmt.Errorf("transcribe: %w", err)), outcomeError
	}
	if len(texts) == 0 {
		return Failure(errors.New("model returned no transcript")), outcomeError
	}
	return Success(texts[0]), outcomeOK
}

// cleanup never fails the request; a leftover temp file is only logged.
func (s *Service) cleanup(path string) {
	if err := fsutil.RemoveIfExists(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("remove temp wav")
	}
}
