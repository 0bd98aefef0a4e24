package audio

import (
	"fmt"
	"math"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/plan"
)

// segmentPattern names the temporary WAV files holding one chunk each.
const segmentPattern = "transcribe-chunk-*.wav"

// SegmentFile is a scoped, filesystem-backed chunk of audio. The underlying
// file exists from Materialize until Close; Close is idempotent and must be
// called on every exit path so no temporary file outlives its chunk.
type SegmentFile struct {
	path  string
	files fileRemover

	once sync.Once
	err  error
}

// Path returns the location of the temporary WAV file.
func (s *SegmentFile) Path() string {
	return s.path
}

// Close removes the underlying file. Safe to call more than once; later
// calls return the first removal's result.
func (s *SegmentFile) Close() error {
	s.once.Do(func() {
		s.err = s.files.Remove(s.path)
	})
	return s.err
}

// Materializer writes waveform slices to temporary WAV files the
// transcription engine can consume. It isolates the engine from in-memory
// buffers and keeps each chunk independently retryable.
type Materializer struct {
	dir string // temp directory; empty means the OS default

	// Injectable dependencies (defaults to OS implementations).
	temp  tempFileCreator
	files fileRemover
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithSegmentDir sets the directory for temporary segment files.
func WithSegmentDir(dir string) MaterializerOption {
	return func(m *Materializer) {
		m.dir = dir
	}
}

// WithTempFileCreator sets the temp file creator (for testing).
func WithTempFileCreator(t tempFileCreator) MaterializerOption {
	return func(m *Materializer) {
		m.temp = t
	}
}

// WithFileRemover sets the file remover (for testing).
func WithFileRemover(f fileRemover) MaterializerOption {
	return func(m *Materializer) {
		m.files = f
	}
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		temp:  osTempFileCreator{},
		files: osFileRemover{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize slices the waveform at span and writes it to a temporary
// 16-bit PCM WAV file. The caller owns the returned SegmentFile and must
// Close it; on error no file is left behind.
func (m *Materializer) Materialize(h *Handle, span plan.Span) (*SegmentFile, error) {
	if span.Start < 0 || span.End > len(h.Samples) || span.Len() < 1 {
		return nil, fmt.Errorf("%w: span %v outside waveform of %d samples",
			ErrSegmentWrite, span, len(h.Samples))
	}

	f, err := m.temp.CreateTemp(m.dir, segmentPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrSegmentWrite, err)
	}

	seg := &SegmentFile{path: f.Name(), files: m.files}

	if err := writeWAV(f, h.Samples[span.Start:span.End], h.SampleRate); err != nil {
		_ = f.Close()
		_ = seg.Close() // best-effort cleanup; original error takes precedence
		return nil, fmt.Errorf("%w: %v", ErrSegmentWrite, err)
	}
	if err := f.Close(); err != nil {
		_ = seg.Close()
		return nil, fmt.Errorf("%w: close: %v", ErrSegmentWrite, err)
	}

	return seg, nil
}

// writeWAV encodes mono float32 samples as 16-bit PCM WAV.
func writeWAV(f *os.File, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           quantize(samples),
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// quantize converts float32 samples in [-1, 1] to 16-bit PCM values,
// clamping out-of-range input.
func quantize(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int(math.Round(v * math.MaxInt16))
	}
	return out
}
