package cli_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/audio"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/cli"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/config"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/engine"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
)

// fakeConfigLoader returns a fixed config.
type fakeConfigLoader struct {
	cfg config.Config
	err error
}

func (f *fakeConfigLoader) Load() (config.Config, error) {
	return f.cfg, f.err
}

// fakeLoader returns a fixed waveform handle for every path.
type fakeLoader struct {
	duration time.Duration
	rate     int
	err      error

	loaded []string
}

func (f *fakeLoader) Load(_ context.Context, path string) (*audio.Handle, error) {
	f.loaded = append(f.loaded, path)
	if f.err != nil {
		return nil, f.err
	}
	n := int(time.Duration(f.rate) * f.duration / time.Second)
	return &audio.Handle{
		Path:       path,
		Samples:    make([]float32, n),
		SampleRate: f.rate,
	}, nil
}

// fakeLoaderFactory hands out a single shared loader and records the ffmpeg
// path it was bound to.
type fakeLoaderFactory struct {
	loader     *fakeLoader
	ffmpegPath string
}

func (f *fakeLoaderFactory) NewLoader(ffmpegPath string) (cli.SourceLoader, error) {
	f.ffmpegPath = ffmpegPath
	return f.loader, nil
}

// stubEngine scripts Transcribe by call index.
type stubEngine struct {
	fn    func(call int, path string) (engine.Result, error)
	calls []string
}

func (s *stubEngine) Transcribe(_ context.Context, path string) (engine.Result, error) {
	call := len(s.calls)
	s.calls = append(s.calls, path)
	if s.fn == nil {
		return engine.NewResult(fmt.Sprintf("text%d", call)), nil
	}
	return s.fn(call, path)
}

// fakeEngineFactory records which engine was requested and with what.
type fakeEngineFactory struct {
	eng *stubEngine

	whisperModel    string
	whisperLanguage string
	whisperErr      error
	modelClosed     bool

	openaiKey   string
	openaiModel string
}

func (f *fakeEngineFactory) NewWhisper(modelPath, language string, _ engine.DecodeFunc) (engine.Engine, func() error, error) {
	f.whisperModel = modelPath
	f.whisperLanguage = language
	if f.whisperErr != nil {
		return nil, nil, f.whisperErr
	}
	return f.eng, func() error { f.modelClosed = true; return nil }, nil
}

func (f *fakeEngineFactory) NewOpenAI(apiKey, model string) engine.Engine {
	f.openaiKey = apiKey
	f.openaiModel = model
	return f.eng
}

// fakeReportWriter captures the run instead of touching the filesystem.
type fakeReportWriter struct {
	run  *orchestrate.TranscriptionRun
	dest string
	err  error
}

func (f *fakeReportWriter) Write(run *orchestrate.TranscriptionRun, destPath string) error {
	f.run = run
	f.dest = destPath
	return f.err
}

// errNoBinary simulates a missing ffmpeg.
var errNoBinary = errors.New("executable file not found in $PATH")
