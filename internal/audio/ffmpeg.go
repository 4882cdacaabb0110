package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
)

const maxStderrPreview = 300

// Decode feeds data to ffmpeg on stdin, letting it detect the container and
// codec, and reads back raw signed 16-bit little-endian PCM resampled to
// 16 kHz and downmixed to one channel.
func (f *FFmpeg) Decode(ctx context.Context, data []byte) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty upload", ErrDecode)
	}
	ctx, cancel := context.WithTimeout(ctx, f.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		f.ffmpegBinary,
		"-hide_banner",
		"-loglevel", "error",
		// cache: makes stdin seekable for containers indexed at the end (mp4 moov after mdat)
		"-read_ahead_limit", "-1",
		"-i", "cache:pipe:0",
		"-vn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Clip{}, fmt.Errorf("%w: ffmpeg: %v", ErrDecode, ctx.Err())
		}
		return Clip{}, fmt.Errorf("%w: ffmpeg: %v: %s", ErrDecode, err, preview(stderr.String()))
	}
	if stdout.Len() == 0 {
		return Clip{}, fmt.Errorf("%w: no audio stream found", ErrDecode)
	}
	return Clip{Samples: pcmToSamples(stdout.Bytes())}, nil
}

func pcmToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return samples
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrPreview {
		return s[:maxStderrPreview] + "..."
	}
	return s
}
