// Package engine defines the transcription capability consumed by the
// orchestrator and its two implementations: a local whisper.cpp model and
// OpenAI's hosted transcription API.
//
// Engines are handed to the orchestrator by unique ownership. They are never
// invoked concurrently: the local model holds exclusive accelerator memory,
// and strict sequencing is what makes transcript assembly deterministic.
package engine

import (
	"context"
	"strings"
)

// Default model identifiers per engine.
const (
	// DefaultWhisperModel is the preconfigured English whisper.cpp model.
	DefaultWhisperModel = "ggml-base.en.bin"

	// DefaultOpenAIModel is the cost-effective hosted transcription model.
	DefaultOpenAIModel = "gpt-4o-mini-transcribe"
)

// Result is the outcome of one engine invocation.
type Result struct {
	Text  string // recognized text, whitespace-trimmed
	Words int    // number of whitespace-separated words in Text
}

// Engine converts one audio file to text. Implementations classify their
// failures into the sentinels in errors.go; in particular a memory-related
// failure must wrap ErrResourceExhausted so the orchestrator can recover by
// chunking or subdivision.
type Engine interface {
	// Transcribe converts the audio file at audioPath to text.
	// audioPath is either the original source file or a materialized
	// 16 kHz mono WAV segment.
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// NewResult trims text and counts its words.
func NewResult(text string) Result {
	text = strings.TrimSpace(text)
	return Result{Text: text, Words: len(strings.Fields(text))}
}
