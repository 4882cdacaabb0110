// Package audio converts uploaded audio of any container/codec into the
// canonical form the ASR runtime expects: 16 kHz mono 16-bit PCM WAV.
package audio

import (
	"errors"
	"time"
)

const (
	DefaultFFmpegBinary   = "ffmpeg"
	DefaultCommandTimeout = time.Second * 60

	// SampleRate and Channels describe every Clip produced by this package.
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

// ErrDecode wraps every failure to turn input bytes into samples.
var ErrDecode = errors.New("audio decode failed")

// Clip is decoded mono PCM at SampleRate.
type Clip struct {
	Samples []int16
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	return time.Duration(len(c.Samples)) * time.Second / SampleRate
}

type FFmpegOptions func(*FFmpeg)

// FFmpeg decodes and resamples audio by running the ffmpeg executable.
type FFmpeg struct {
	ffmpegBinary   string
	commandTimeout time.Duration
}

func WithFFmpegBinary(ffmpegBinary string) FFmpegOptions {
	return func(f *FFmpeg) {
		if ffmpegBinary != "" {
			f.ffmpegBinary = ffmpegBinary
		}
	}
}

func WithCommandTimeout(timeout time.Duration) FFmpegOptions {
	return func(f *FFmpeg) {
		if timeout > 0 {
			f.commandTimeout = timeout
		}
	}
}

func NewFFmpeg(options ...FFmpegOptions) *FFmpeg {
	ffmpeg := &FFmpeg{
		ffmpegBinary:   DefaultFFmpegBinary,
		commandTimeout: DefaultCommandTimeout,
	}

	for _, option := range options {
		option(ffmpeg)
	}

	return ffmpeg
}

// Binary returns the configured ffmpeg executable.
func (f *FFmpeg) Binary() string { return f.ffmpegBinary }
