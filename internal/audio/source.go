// Package audio loads recordings into normalized in-memory waveforms and
// materializes chunk segments as scoped temporary WAV files.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"
)

// EngineSampleRate is the sample rate every waveform is resampled to.
// It is the rate the transcription engine expects.
const EngineSampleRate = 16000

// Handle is an audio file loaded into memory as a normalized waveform:
// mono float32 samples at EngineSampleRate. It is owned by the orchestrator
// for the lifetime of one transcription run.
type Handle struct {
	Path       string    // original file path
	Samples    []float32 // mono waveform, values in [-1, 1]
	SampleRate int       // samples per second
}

// TotalSamples returns the number of samples in the waveform.
func (h *Handle) TotalSamples() int {
	return len(h.Samples)
}

// Duration returns the total audio duration.
func (h *Handle) Duration() time.Duration {
	if h.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(h.Samples)) * time.Second / time.Duration(h.SampleRate)
}

// Loader decodes audio files into Handles using ffmpeg.
type Loader struct {
	ffmpegPath string
	sampleRate int

	// Injectable dependency (defaults to the OS implementation).
	cmd commandRunner
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderCommandRunner sets the command runner (for testing).
func WithLoaderCommandRunner(r commandRunner) LoaderOption {
	return func(l *Loader) {
		l.cmd = r
	}
}

// WithLoaderSampleRate overrides the target sample rate (for testing).
func WithLoaderSampleRate(rate int) LoaderOption {
	return func(l *Loader) {
		if rate > 0 {
			l.sampleRate = rate
		}
	}
}

// NewLoader creates a Loader that decodes with the given ffmpeg binary.
func NewLoader(ffmpegPath string, opts ...LoaderOption) (*Loader, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty")
	}
	l := &Loader{
		ffmpegPath: ffmpegPath,
		sampleRate: EngineSampleRate,
		cmd:        osCommandRunner{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load decodes and resamples the file at path into a mono waveform.
// Returns ErrUnreadable if the file is missing, corrupt, or in a container
// ffmpeg cannot decode, and for files that decode to zero samples.
func (l *Loader) Load(ctx context.Context, path string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	// Decode straight to raw 32-bit float little-endian PCM on stdout.
	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", l.sampleRate),
		"-",
	}
	stdout, stderr, err := l.cmd.Run(ctx, l.ffmpegPath, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrUnreadable, err, firstLine(stderr))
	}

	samples, err := decodeF32LE(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no audio samples decoded", ErrUnreadable)
	}

	return &Handle{
		Path:       path,
		Samples:    samples,
		SampleRate: l.sampleRate,
	}, nil
}

// decodeF32LE converts raw little-endian float32 bytes to samples.
func decodeF32LE(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("truncated PCM stream: %d bytes", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

// firstLine returns the first non-empty line of ffmpeg stderr for error
// messages, avoiding multi-line noise in wrapped errors.
func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
