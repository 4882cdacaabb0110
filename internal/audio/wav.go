package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// TempPrefix starts the name of every temporary WAV written by WriteTempWAV.
const TempPrefix = "asrd-"

// EncodeWAV writes the clip as a 16-bit PCM WAV container. w must be seekable
// so the encoder can patch the RIFF sizes on Close.
func EncodeWAV(w io.WriteSeeker, clip Clip) error {
	enc := wav.NewEncoder(w, SampleRate, BitDepth, Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  SampleRate,
		},
		Data:           make([]int, len(clip.Samples)),
		SourceBitDepth: BitDepth,
	}
	for i, s := range clip.Samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteTempWAV writes clip to a uniquely named file in dir (os.TempDir when
// empty) and returns its path. The caller owns removal.
func WriteTempWAV(dir string, clip Clip) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, TempPrefix+uuid.NewString()+".wav")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	if err := EncodeWAV(f, clip); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return path, nil
}
