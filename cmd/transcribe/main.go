package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/audio"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/cli"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/engine"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/interrupt"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/plan"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/report"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitOutput        = 6
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the run gracefully; a quick second one aborts.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:     "transcribe",
		Short:   "Transcribe podcasts and long audio files to markdown",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if handler.WasInterrupted() && errors.Is(err, context.Canceled) {
			os.Exit(interrupt.ExitInterrupt)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes by class.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return interrupt.ExitInterrupt
	}

	// Setup errors: environment problems the user fixes once.
	if errors.Is(err, cli.ErrFFmpegNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) ||
		errors.Is(err, cli.ErrUnknownEngine) || errors.Is(err, engine.ErrModelLoad) {
		return ExitSetup
	}

	// Validation errors: problems with this particular invocation.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrInvalidChunkDuration) || errors.Is(err, audio.ErrUnreadable) ||
		errors.Is(err, plan.ErrInvalid) {
		return ExitValidation
	}

	// Transcription errors: the engine could not produce a result.
	if errors.Is(err, engine.ErrRateLimit) || errors.Is(err, engine.ErrQuotaExceeded) ||
		errors.Is(err, engine.ErrTimeout) || errors.Is(err, engine.ErrAuthFailed) ||
		errors.Is(err, engine.ErrResourceExhausted) ||
		errors.Is(err, orchestrate.ErrChunkTooSmall) ||
		errors.Is(err, audio.ErrSegmentWrite) {
		return ExitTranscription
	}

	// Output errors: the transcript exists but could not be saved.
	if errors.Is(err, report.ErrOutputWrite) {
		return ExitOutput
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. Cobra doesn't expose typed errors, so string matching
// is the only reliable approach; these patterns are stable across versions.
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
	"unknown command",        // Subcommand doesn't exist
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
