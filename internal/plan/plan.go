// Package plan computes chunk boundaries for long audio files.
//
// Planning is pure arithmetic over sample offsets: it never touches the
// waveform itself, so the orchestrator can plan once and materialize
// segments lazily, one at a time.
package plan

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalid indicates a non-positive duration or chunk threshold.
var ErrInvalid = errors.New("invalid chunk plan parameters")

// minTail is the shortest trailing window the planner will emit on its own.
// A remainder shorter than this merges into the previous window instead of
// becoming a micro-chunk.
const minTail = 15 * time.Second

// Span is a half-open range of samples [Start, End) within the waveform.
type Span struct {
	Start int // inclusive sample offset
	End   int // exclusive sample offset
}

// Len returns the number of samples covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Duration returns the span's length in time at the given sample rate.
func (s Span) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(s.Len()) * time.Second / time.Duration(sampleRate)
}

// Halve splits the span into two contiguous halves. The midpoint rounds
// down, so for odd lengths the second half is one sample longer.
func (s Span) Halve() (Span, Span) {
	mid := s.Start + s.Len()/2
	return Span{Start: s.Start, End: mid}, Span{Start: mid, End: s.End}
}

// String returns a human-readable representation for logging.
func (s Span) String() string {
	return fmt.Sprintf("[%d:%d)", s.Start, s.End)
}

// Plan is an ordered sequence of contiguous spans covering the whole
// waveform: spans[0].Start == 0, spans[i].End == spans[i+1].Start, and the
// final span's End equals the total sample count. A single-span plan means
// the file is short enough to transcribe whole.
type Plan []Span

// Single reports whether the plan covers the file in one span.
func (p Plan) Single() bool {
	return len(p) == 1
}

// New computes chunk boundaries for totalSamples of audio at sampleRate.
//
// If the total duration is at most chunkDuration the plan has exactly one
// span. Otherwise the file is divided into consecutive windows of
// chunkDuration, with a final remainder shorter than minTail merged into
// the previous window so no pathologically small trailing chunk is emitted.
//
// Returns ErrInvalid for non-positive inputs or a chunkDuration shorter
// than one sample.
func New(totalSamples, sampleRate int, chunkDuration time.Duration) (Plan, error) {
	if totalSamples <= 0 {
		return nil, fmt.Errorf("%w: total samples %d", ErrInvalid, totalSamples)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalid, sampleRate)
	}
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("%w: chunk duration %v", ErrInvalid, chunkDuration)
	}

	// Cap the threshold so sampleRate*chunkDuration cannot overflow; any
	// duration at or beyond the cap exceeds every real file and yields a
	// single span below.
	if maxChunk := math.MaxInt64 / time.Duration(sampleRate); chunkDuration > maxChunk {
		chunkDuration = maxChunk
	}

	chunkSamples := int(time.Duration(sampleRate) * chunkDuration / time.Second)
	if chunkSamples < 1 {
		return nil, fmt.Errorf("%w: chunk duration %v spans no samples at %d Hz",
			ErrInvalid, chunkDuration, sampleRate)
	}

	if totalSamples <= chunkSamples {
		return Plan{{Start: 0, End: totalSamples}}, nil
	}

	minTailSamples := int(time.Duration(sampleRate) * minTail / time.Second)

	var spans Plan
	for start := 0; start < totalSamples; start += chunkSamples {
		end := min(start+chunkSamples, totalSamples)
		spans = append(spans, Span{Start: start, End: end})
	}

	// Merge a pathologically small trailing remainder into the previous
	// window rather than sending the engine a micro-chunk.
	if n := len(spans); n > 1 && spans[n-1].Len() < minTailSamples {
		spans[n-2].End = spans[n-1].End
		spans = spans[:n-1]
	}

	return spans, nil
}
