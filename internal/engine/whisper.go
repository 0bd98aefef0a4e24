package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"
)

// Compile-time interface compliance check.
var _ Engine = (*Whisper)(nil)

// whisperModel is the subset of the whisper.cpp binding's Model used here.
// Narrowing the interface lets tests inject a fake model.
type whisperModel interface {
	NewContext() (whisperlib.Context, error)
	Close() error
}

// DecodeFunc decodes an arbitrary audio file into mono float32 samples and
// their sample rate. The whisper engine uses it for source files that are
// not already 16 kHz WAV.
type DecodeFunc func(ctx context.Context, path string) ([]float32, int, error)

// Whisper transcribes audio with a local whisper.cpp model. The model holds
// exclusive accelerator memory, so a Whisper value must not be shared across
// concurrent calls.
type Whisper struct {
	model    whisperModel
	modelID  string
	language string
	decode   DecodeFunc
}

// WhisperOption configures a Whisper engine.
type WhisperOption func(*Whisper)

// WithWhisperLanguage sets the transcription language hint.
// English-only models reject explicit language selection; the hint is then
// ignored.
func WithWhisperLanguage(lang string) WhisperOption {
	return func(w *Whisper) {
		w.language = lang
	}
}

// WithWhisperDecoder sets the decoder used for non-WAV input files.
func WithWhisperDecoder(fn DecodeFunc) WhisperOption {
	return func(w *Whisper) {
		w.decode = fn
	}
}

// WithWhisperModel injects a pre-loaded model (for testing). When set,
// NewWhisper skips loading from modelPath.
func WithWhisperModel(m whisperModel) WhisperOption {
	return func(w *Whisper) {
		w.model = m
	}
}

// NewWhisper loads the whisper.cpp model at modelPath. The caller must call
// Close when done. Load failures wrap ErrModelLoad.
func NewWhisper(modelPath string, opts ...WhisperOption) (*Whisper, error) {
	w := &Whisper{modelID: filepath.Base(modelPath)}
	for _, opt := range opts {
		opt(w)
	}
	if w.model == nil {
		if modelPath == "" {
			return nil, fmt.Errorf("%w: model path is empty", ErrModelLoad)
		}
		model, err := whisperlib.New(modelPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrModelLoad, modelPath, err)
		}
		w.model = model
	}
	return w, nil
}

// Close releases the model's resources.
func (w *Whisper) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp inference over the audio file at audioPath.
// Allocation failures from the inference runtime wrap ErrResourceExhausted.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	samples, err := w.samplesFor(ctx, audioPath)
	if err != nil {
		return Result{}, err
	}

	// Each inference uses a fresh context from the shared model.
	wctx, err := w.model.NewContext()
	if err != nil {
		return Result{}, classifyWhisperErr(fmt.Errorf("create context: %w", err))
	}

	if w.language != "" {
		// English-only models reject explicit language selection.
		_ = wctx.SetLanguage(w.language)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return Result{}, classifyWhisperErr(fmt.Errorf("process audio: %w", err))
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, classifyWhisperErr(fmt.Errorf("read segment: %w", err))
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return NewResult(strings.Join(parts, " ")), nil
}

// samplesFor produces mono float32 samples at the model's expected rate.
// Materialized segments are already 16 kHz WAV and take the fast path;
// anything else goes through the injected decoder.
func (w *Whisper) samplesFor(ctx context.Context, path string) ([]float32, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if samples, rate, err := readWAV(path); err == nil && rate == whisperlib.SampleRate {
			return samples, nil
		}
	}

	if w.decode == nil {
		return nil, fmt.Errorf("no decoder configured for %q", path)
	}
	samples, rate, err := w.decode(ctx, path)
	if err != nil {
		return nil, err
	}
	if rate != whisperlib.SampleRate {
		return nil, fmt.Errorf("decoded %q at %d Hz, model expects %d Hz", path, rate, whisperlib.SampleRate)
	}
	return samples, nil
}

// readWAV decodes a PCM WAV file into float32 samples.
func readWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from internal materialization
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("wav %q is not mono", path)
	}

	fbuf := buf.AsFloat32Buffer()
	return fbuf.Data, buf.Format.SampleRate, nil
}

// whisper.cpp reports allocation failures as plain error strings; these
// substrings cover ggml and backend OOM messages across versions.
var oomSubstrings = []string{
	"out of memory",
	"failed to allocate",
	"not enough memory",
	"insufficient memory",
	"alloc failed",
}

// classifyWhisperErr maps inference-runtime failures to sentinel errors.
func classifyWhisperErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, s := range oomSubstrings {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%v: %w", err, ErrResourceExhausted)
		}
	}
	return err
}
