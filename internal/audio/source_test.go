package audio_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/audio"
)

// fakeRunner implements the loader's command runner without spawning ffmpeg.
type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.stdout, f.stderr, f.err
}

// pcmBytes encodes float32 samples as little-endian raw PCM, the stream
// ffmpeg produces with -f f32le.
func pcmBytes(samples ...float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// touch creates an empty file so the loader's existence check passes.
func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestLoaderLoad - Decoding to a normalized waveform
// ---------------------------------------------------------------------------

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	t.Run("decodes samples into handle", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{stdout: pcmBytes(0, 0.5, -0.5, 1)}
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		path := touch(t, "episode.mp3")
		h, err := loader.Load(context.Background(), path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if h.Path != path {
			t.Errorf("Path = %q, want %q", h.Path, path)
		}
		if h.SampleRate != audio.EngineSampleRate {
			t.Errorf("SampleRate = %d, want %d", h.SampleRate, audio.EngineSampleRate)
		}
		if h.TotalSamples() != 4 {
			t.Errorf("TotalSamples() = %d, want 4", h.TotalSamples())
		}
		if h.Samples[1] != 0.5 || h.Samples[2] != -0.5 {
			t.Errorf("Samples = %v, want [0 0.5 -0.5 1]", h.Samples)
		}
	})

	t.Run("requests mono f32le at the engine rate", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{stdout: pcmBytes(0)}
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := loader.Load(context.Background(), touch(t, "a.wav")); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if len(runner.calls) != 1 {
			t.Fatalf("ffmpeg invoked %d times, want 1", len(runner.calls))
		}
		got := runner.calls[0]
		for _, want := range []string{"-f", "f32le", "-ac", "1", "-ar", "16000"} {
			found := false
			for _, arg := range got {
				if arg == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("ffmpeg args %v missing %q", got, want)
			}
		}
	})

	t.Run("missing file is unreadable", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
		if !errors.Is(err, audio.ErrUnreadable) {
			t.Errorf("Load() error = %v, want ErrUnreadable", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("ffmpeg invoked for a missing file")
		}
	})

	t.Run("decoder failure is unreadable", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{
			err:    errors.New("exit status 1"),
			stderr: []byte("Invalid data found when processing input\n"),
		}
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		_, err = loader.Load(context.Background(), touch(t, "corrupt.ogg"))
		if !errors.Is(err, audio.ErrUnreadable) {
			t.Errorf("Load() error = %v, want ErrUnreadable", err)
		}
	})

	t.Run("zero decoded samples is unreadable", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{stdout: nil}
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		_, err = loader.Load(context.Background(), touch(t, "empty.wav"))
		if !errors.Is(err, audio.ErrUnreadable) {
			t.Errorf("Load() error = %v, want ErrUnreadable", err)
		}
	})

	t.Run("truncated stream is unreadable", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{stdout: []byte{1, 2, 3}} // not a multiple of 4
		loader, err := audio.NewLoader("ffmpeg", audio.WithLoaderCommandRunner(runner))
		if err != nil {
			t.Fatal(err)
		}

		_, err = loader.Load(context.Background(), touch(t, "cut.wav"))
		if !errors.Is(err, audio.ErrUnreadable) {
			t.Errorf("Load() error = %v, want ErrUnreadable", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestHandleDuration - Duration derived from sample count
// ---------------------------------------------------------------------------

func TestHandleDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples int
		rate    int
		want    time.Duration
	}{
		{name: "one second", samples: 16000, rate: 16000, want: time.Second},
		{name: "two minutes", samples: 2 * 60 * 16000, rate: 16000, want: 2 * time.Minute},
		{name: "half second", samples: 8000, rate: 16000, want: 500 * time.Millisecond},
		{name: "zero rate guards division", samples: 16000, rate: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &audio.Handle{Samples: make([]float32, tt.samples), SampleRate: tt.rate}
			if got := h.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}
