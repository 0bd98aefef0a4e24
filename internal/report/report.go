// Package report renders a finished transcription as a markdown document
// and writes it to disk atomically.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/format"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
)

// ErrOutputWrite indicates the transcript could not be written to its
// destination.
var ErrOutputWrite = errors.New("cannot write transcript output")

// tempPattern names the staging file used for atomic writes. It lives in the
// destination directory so the final rename never crosses filesystems.
const tempPattern = ".transcript-*.md"

// defaultGenerator is the attribution line at the bottom of each report.
const defaultGenerator = "local-podcast-transcription"

// Writer renders transcription runs to markdown files. Writes are atomic:
// content is staged in a temp file next to the destination and renamed into
// place, so a failed write never leaves a truncated transcript behind.
type Writer struct {
	generator string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithGenerator sets the tool name in the report footer.
func WithGenerator(name string) WriterOption {
	return func(w *Writer) {
		if name != "" {
			w.generator = name
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{generator: defaultGenerator}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Render produces the markdown document for run: a metadata header followed
// by the full transcript.
func (w *Writer) Render(run *orchestrate.TranscriptionRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transcript: %s\n\n", run.FileName)
	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "- **File**: %s\n", run.FileName)
	fmt.Fprintf(&b, "- **Duration**: %s\n", format.Duration(run.AudioDuration))
	fmt.Fprintf(&b, "- **Transcription Date**: %s\n", format.Timestamp(run.StartedAt))
	fmt.Fprintf(&b, "- **Model**: %s\n", run.Model)
	fmt.Fprintf(&b, "- **Processing Time**: %s\n", format.Duration(run.Elapsed))
	fmt.Fprintf(&b, "- **Processing Speed**: %s\n", format.Speed(run.Speed()))
	b.WriteString("\n---\n\n## Full Transcript\n\n")
	b.WriteString(run.Transcript())
	fmt.Fprintf(&b, "\n\n---\n\n*Transcribed using %s*\n", w.generator)

	return b.String()
}

// Write renders run and writes it to destPath, creating parent directories
// as needed. An existing file at destPath is replaced.
func (w *Writer) Write(run *orchestrate.TranscriptionRun, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrOutputWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrOutputWrite, err)
	}
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.WriteString(w.Render(run)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrOutputWrite, err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}
