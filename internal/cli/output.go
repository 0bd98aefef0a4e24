package cli

import (
	"fmt"
	"io"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/format"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/orchestrate"
)

// printEvent writes one progress line per orchestrator event.
func printEvent(w io.Writer, ev orchestrate.Event) {
	switch ev.Kind {
	case orchestrate.EventChunkDone:
		fmt.Fprintf(w, "  Chunk %d/%d (%s - %s): %d words\n",
			ev.Chunk+1, ev.Total,
			format.Duration(ev.Start), format.Duration(ev.End),
			ev.Words)
	case orchestrate.EventSubdivide:
		fmt.Fprintf(w, "  Memory limit hit on %s - %s; splitting chunk and retrying...\n",
			format.Duration(ev.Start), format.Duration(ev.End))
	case orchestrate.EventFallback:
		fmt.Fprintln(w, "  File too large for a single pass; switching to chunked processing...")
	}
}

// printSummary writes the end-of-run report pointer and statistics.
func printSummary(w io.Writer, run *orchestrate.TranscriptionRun, outputPath string) {
	fmt.Fprintf(w, "\nTranscription completed in %s\n", format.Duration(run.Elapsed))
	if speed := run.Speed(); speed > 0 {
		fmt.Fprintf(w, "Processing speed: %s\n", format.Speed(speed))
	}
	fmt.Fprintf(w, "Transcript saved to: %s\n", outputPath)
	fmt.Fprintf(w, "Transcript contains approximately %d words\n", run.Words())
}
