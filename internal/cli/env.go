package cli

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/audio"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/config"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/engine"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/report"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Now      func() time.Time
	LookPath func(string) (string, error)

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	LoaderFactory LoaderFactory
	EngineFactory EngineFactory
	ReportWriter  ReportWriter

	// Extra orchestrator options appended by tests (e.g. a scoped segment
	// directory).
	OrchestratorOptions []orchestrate.Option
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// SourceLoader decodes an audio file into a waveform handle.
type SourceLoader interface {
	Load(ctx context.Context, path string) (*audio.Handle, error)
}

// LoaderFactory creates source loaders bound to an ffmpeg binary.
type LoaderFactory interface {
	NewLoader(ffmpegPath string) (SourceLoader, error)
}

// EngineFactory creates transcription engines.
type EngineFactory interface {
	// NewWhisper loads a local whisper.cpp model. The decoder handles
	// source files that are not already 16 kHz WAV.
	NewWhisper(modelPath, language string, decode engine.DecodeFunc) (engine.Engine, func() error, error)

	// NewOpenAI creates a hosted transcription engine.
	NewOpenAI(apiKey, model string) engine.Engine
}

// ReportWriter renders and persists a finished transcription run.
type ReportWriter interface {
	Write(run *orchestrate.TranscriptionRun, destPath string) error
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithLookPath sets the binary locator used to find ffmpeg.
func WithLookPath(fn func(string) (string, error)) EnvOption {
	return func(e *Env) {
		e.LookPath = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithLoaderFactory sets the source loader factory.
func WithLoaderFactory(f LoaderFactory) EnvOption {
	return func(e *Env) {
		e.LoaderFactory = f
	}
}

// WithEngineFactory sets the engine factory.
func WithEngineFactory(f EngineFactory) EnvOption {
	return func(e *Env) {
		e.EngineFactory = f
	}
}

// WithReportWriter sets the report writer.
func WithReportWriter(w ReportWriter) EnvOption {
	return func(e *Env) {
		e.ReportWriter = w
	}
}

// WithOrchestratorOptions appends orchestrator options.
func WithOrchestratorOptions(opts ...orchestrate.Option) EnvOption {
	return func(e *Env) {
		e.OrchestratorOptions = append(e.OrchestratorOptions, opts...)
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Now:           time.Now,
		LookPath:      exec.LookPath,
		ConfigLoader:  &defaultConfigLoader{},
		LoaderFactory: &defaultLoaderFactory{},
		EngineFactory: &defaultEngineFactory{},
		ReportWriter:  report.NewWriter(),
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultLoaderFactory implements LoaderFactory using the audio package.
type defaultLoaderFactory struct{}

func (defaultLoaderFactory) NewLoader(ffmpegPath string) (SourceLoader, error) {
	return audio.NewLoader(ffmpegPath)
}

// defaultEngineFactory implements EngineFactory using the engine package.
type defaultEngineFactory struct{}

func (defaultEngineFactory) NewWhisper(modelPath, language string, decode engine.DecodeFunc) (engine.Engine, func() error, error) {
	opts := []engine.WhisperOption{engine.WithWhisperDecoder(decode)}
	if language != "" {
		opts = append(opts, engine.WithWhisperLanguage(language))
	}
	w, err := engine.NewWhisper(modelPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Close, nil
}

func (defaultEngineFactory) NewOpenAI(apiKey, model string) engine.Engine {
	return engine.NewOpenAI(apiKey, engine.WithOpenAIModel(model))
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ LoaderFactory = (*defaultLoaderFactory)(nil)
	_ EngineFactory = (*defaultEngineFactory)(nil)
	_ SourceLoader  = (*audio.Loader)(nil)
	_ ReportWriter  = (*report.Writer)(nil)
)
