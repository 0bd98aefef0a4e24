package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/config"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/engine"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/format"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// supportedFormats lists audio container/codec extensions ffmpeg decodes for
// us. Anything else is rejected before any work starts.
var supportedFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".mp4":  true,
	".mpga": true,
	".mpeg": true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// deriveOutputPath converts an audio file path to a markdown output path.
// Example: "episode.mp3" -> "episode.md"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".md"
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output        string
		engineName    string
		model         string
		language      string
		chunkDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file to markdown",
		Long: `Transcribe an audio file into a markdown document.

Long files are processed in sequential chunks so memory use stays bounded;
when the engine runs out of memory on a chunk, the chunk is split in half
and retried. Short files are transcribed in a single pass.

Engines:
  whisper  Local whisper.cpp model (default). --model is the ggml model path.
  openai   OpenAI's hosted API. Requires OPENAI_API_KEY; --model is the API
           model name.`,
		Example: `  transcribe transcribe episode.mp3
  transcribe transcribe episode.mp3 -o notes/episode.md
  transcribe transcribe episode.mp3 -m models/ggml-small.en.bin
  transcribe transcribe episode.mp3 --engine openai
  transcribe transcribe interview.m4a --chunk-duration 10m -l en`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args[0], output, engineName, model, language, chunkDuration)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>.md)")
	cmd.Flags().StringVar(&engineName, "engine", "", "Transcription engine: whisper, openai (default: whisper)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model path (whisper) or model name (openai)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language hint (ISO 639-1 code, e.g. en)")
	cmd.Flags().DurationVar(&chunkDuration, "chunk-duration", 0, "Chunk length for long files (default: 5m)")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: file exists -> format -> config -> engine -> chunk
// duration -> API key -> ffmpeg.
func runTranscribe(ctx context.Context, env *Env, inputPath, output, engineName, model, language string, chunkDuration time.Duration) error {
	// === VALIDATION (fail-fast) ===

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if !supportedFormats[ext] {
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			ext, supportedFormatsList(), ErrUnsupportedFormat)
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	// Without a configured output directory the transcript sits next to its
	// source; with one, transcripts collect there by base name.
	defaultOutput := deriveOutputPath(inputPath)
	if cfg.OutputDir != "" {
		defaultOutput = filepath.Base(defaultOutput)
	}
	output = config.ResolveOutputPath(output, config.ExpandPath(cfg.OutputDir), defaultOutput)

	if engineName == "" {
		engineName = cfg.Engine
	}
	if engineName == "" {
		engineName = config.EngineWhisper
	}
	if engineName != config.EngineWhisper && engineName != config.EngineOpenAI {
		return fmt.Errorf("%w: %q (valid: %s, %s)",
			ErrUnknownEngine, engineName, config.EngineWhisper, config.EngineOpenAI)
	}

	if chunkDuration == 0 {
		chunkDuration = cfg.ChunkDuration
	}
	if chunkDuration < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidChunkDuration, chunkDuration)
	}

	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		if engineName == config.EngineWhisper {
			model = engine.DefaultWhisperModel
		} else {
			model = engine.DefaultOpenAIModel
		}
	}

	var apiKey string
	if engineName == config.EngineOpenAI {
		apiKey = env.Getenv(EnvOpenAIAPIKey)
		if apiKey == "" {
			return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
		}
	}

	ffmpegPath, err := env.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("%w (install it or add it to PATH)", ErrFFmpegNotFound)
	}

	// === LOAD ===

	loader, err := env.LoaderFactory.NewLoader(ffmpegPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Loading audio: %s\n", inputPath)
	h, err := loader.Load(ctx, inputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Audio duration: %s\n", format.Duration(h.Duration()))

	// === ENGINE ===

	var eng engine.Engine
	switch engineName {
	case config.EngineWhisper:
		decode := func(ctx context.Context, path string) ([]float32, int, error) {
			dh, err := loader.Load(ctx, path)
			if err != nil {
				return nil, 0, err
			}
			return dh.Samples, dh.SampleRate, nil
		}
		whisper, closeModel, err := env.EngineFactory.NewWhisper(model, language, decode)
		if err != nil {
			return err
		}
		defer func() { _ = closeModel() }()
		eng = whisper
	case config.EngineOpenAI:
		eng = env.EngineFactory.NewOpenAI(apiKey, model)
	}

	// === TRANSCRIPTION ===

	orchOpts := make([]orchestrate.Option, 0, len(env.OrchestratorOptions)+3)
	orchOpts = append(orchOpts, orchestrate.WithClock(env.Now))
	orchOpts = append(orchOpts, env.OrchestratorOptions...)
	if chunkDuration > 0 {
		orchOpts = append(orchOpts, orchestrate.WithChunkDuration(chunkDuration))
	}

	events := make(chan orchestrate.Event, 8)
	orchOpts = append(orchOpts, orchestrate.WithEvents(events))

	orch, err := orchestrate.New(eng, orchOpts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Transcribing with %s (%s)...\n", engineName, model)

	// The progress consumer runs beside the orchestrator; the producer
	// closes the channel when the run ends, whatever the outcome.
	var run *orchestrate.TranscriptionRun
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		var err error
		run, err = orch.Transcribe(gctx, h, model)
		return err
	})
	g.Go(func() error {
		for ev := range events {
			printEvent(env.Stderr, ev)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	if err := env.ReportWriter.Write(run, output); err != nil {
		return err
	}

	printSummary(env.Stderr, run, output)
	return nil
}
