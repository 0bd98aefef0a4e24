package orchestrate

import (
	"strings"
	"time"
)

// ChunkResult is the outcome of one chunk of transcription work. Immutable
// once created; held in input order regardless of any subdivision that
// happened while producing it.
type ChunkResult struct {
	Index   int           // position in the chunk plan
	Text    string        // recognized text for this chunk
	Words   int           // word count of Text
	Elapsed time.Duration // wall time spent on this chunk, retries included
}

// TranscriptionRun aggregates one full transcription: source metadata, the
// ordered chunk results, and timing. It is created when the run starts,
// mutated only by the orchestrator, and handed to the report writer once
// finalized.
type TranscriptionRun struct {
	FileName      string        // base name of the source file
	AudioDuration time.Duration // total duration of the source audio
	Model         string        // model identifier used for the run
	StartedAt     time.Time     // wall-clock start, for the report header
	Elapsed       time.Duration // total wall-clock processing time
	Results       []ChunkResult // ordered by chunk index
}

// Transcript concatenates chunk text in index order with a single space
// between chunks. Empty chunks (silence) are skipped so they never produce
// doubled separators.
func (r *TranscriptionRun) Transcript() string {
	var b strings.Builder
	for _, res := range r.Results {
		if res.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(res.Text)
	}
	return b.String()
}

// Words returns the total word count across all chunks.
func (r *TranscriptionRun) Words() int {
	total := 0
	for _, res := range r.Results {
		total += res.Words
	}
	return total
}

// Speed returns the processing-speed ratio: audio duration divided by wall
// time. Values above 1 mean faster than real time.
func (r *TranscriptionRun) Speed() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return r.AudioDuration.Seconds() / r.Elapsed.Seconds()
}
