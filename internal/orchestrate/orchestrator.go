// Package orchestrate runs a transcription end to end: it plans chunks over
// a decoded waveform, drives the engine over each chunk sequentially, and
// recovers from resource exhaustion by subdividing the failing chunk.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/audio"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/engine"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/plan"
)

// ErrChunkTooSmall reports a chunk that hit resource exhaustion but is
// already too short to split further. At that point the failure is fatal:
// the environment cannot transcribe even a minimal piece of audio.
var ErrChunkTooSmall = errors.New("chunk below minimum subdivision size")

const (
	// DefaultChunkDuration is the target length of each planned chunk.
	DefaultChunkDuration = 5 * time.Minute

	// minSubdivide is the smallest chunk the orchestrator will create by
	// halving. A span is only split if both halves stay at or above this.
	minSubdivide = 15 * time.Second
)

// materializer writes a waveform span to a temp file the engine can read.
type materializer interface {
	Materialize(h *audio.Handle, span plan.Span) (*audio.SegmentFile, error)
}

var _ materializer = (*audio.Materializer)(nil)

// Orchestrator coordinates one transcription at a time. It owns no
// goroutines: chunks are processed strictly sequentially, so the engine is
// never invoked concurrently and peak memory stays bounded by one chunk.
type Orchestrator struct {
	engine        engine.Engine
	mat           materializer
	chunkDuration time.Duration
	minSubdivide  time.Duration
	events        chan<- Event
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChunkDuration sets the target chunk length for planning.
func WithChunkDuration(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.chunkDuration = d
		}
	}
}

// WithMaterializer injects a custom segment materializer (for testing).
func WithMaterializer(m materializer) Option {
	return func(o *Orchestrator) {
		o.mat = m
	}
}

// WithEvents sets the channel progress events are sent to. The orchestrator
// blocks on sends, so the consumer must keep draining until Transcribe
// returns. A nil channel disables events.
func WithEvents(ch chan<- Event) Option {
	return func(o *Orchestrator) {
		o.events = ch
	}
}

// WithClock injects the time source used for run timing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMinSubdivide sets the smallest chunk the orchestrator may create when
// halving an exhausted chunk.
func WithMinSubdivide(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.minSubdivide = d
		}
	}
}

// New creates an Orchestrator driving eng.
func New(eng engine.Engine, opts ...Option) (*Orchestrator, error) {
	if eng == nil {
		return nil, errors.New("orchestrate: engine is required")
	}
	o := &Orchestrator{
		engine:        eng,
		chunkDuration: DefaultChunkDuration,
		minSubdivide:  minSubdivide,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.mat == nil {
		o.mat = audio.NewMaterializer()
	}
	return o, nil
}

// Transcribe runs a full transcription of h and returns the finalized run.
//
// When the plan is a single span the engine is handed the original source
// file directly, with no temp-file materialization. If that whole-file
// attempt fails with resource exhaustion, the run degrades into the chunked
// path instead of failing. Any other engine error aborts the run.
func (o *Orchestrator) Transcribe(ctx context.Context, h *audio.Handle, model string) (*TranscriptionRun, error) {
	started := o.now()
	run := &TranscriptionRun{
		FileName:      filepath.Base(h.Path),
		AudioDuration: h.Duration(),
		Model:         model,
		StartedAt:     started,
	}

	p, err := plan.New(h.TotalSamples(), h.SampleRate, o.chunkDuration)
	if err != nil {
		return nil, err
	}

	if p.Single() {
		res, werr := o.engine.Transcribe(ctx, h.Path)
		switch {
		case werr == nil:
			elapsed := o.now().Sub(started)
			run.Results = append(run.Results, ChunkResult{
				Index:   0,
				Text:    res.Text,
				Words:   res.Words,
				Elapsed: elapsed,
			})
			o.emit(ctx, Event{
				Kind:  EventChunkDone,
				Chunk: 0,
				Total: 1,
				Words: res.Words,
				End:   h.Duration(),
			})
			run.Elapsed = elapsed
			return run, nil
		case errors.Is(werr, engine.ErrResourceExhausted):
			// The file did not fit in one pass. Fall through to the
			// chunked path; subdivision takes it from there.
			o.emit(ctx, Event{Kind: EventFallback, Total: len(p)})
		default:
			return nil, werr
		}
	}

	for i, span := range p {
		chunkStart := o.now()
		text, words, err := o.transcribeSpan(ctx, h, span)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(p), err)
		}
		run.Results = append(run.Results, ChunkResult{
			Index:   i,
			Text:    text,
			Words:   words,
			Elapsed: o.now().Sub(chunkStart),
		})
		o.emit(ctx, Event{
			Kind:  EventChunkDone,
			Chunk: i,
			Total: len(p),
			Words: words,
			Start: time.Duration(span.Start) * time.Second / time.Duration(h.SampleRate),
			End:   time.Duration(span.End) * time.Second / time.Duration(h.SampleRate),
		})
	}

	run.Elapsed = o.now().Sub(started)
	return run, nil
}

// transcribeSpan materializes one span, transcribes it, and recovers from
// resource exhaustion by halving. The temp segment is removed before any
// recursion so that at most one segment file exists at a time.
func (o *Orchestrator) transcribeSpan(ctx context.Context, h *audio.Handle, span plan.Span) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	seg, err := o.mat.Materialize(h, span)
	if err != nil {
		return "", 0, err
	}
	res, terr := o.engine.Transcribe(ctx, seg.Path())
	_ = seg.Close() // remove the segment before any recursion or return

	if terr == nil {
		return res.Text, res.Words, nil
	}
	if !errors.Is(terr, engine.ErrResourceExhausted) {
		return "", 0, terr
	}

	left, right := span.Halve()
	if left.Duration(h.SampleRate) < o.minSubdivide || right.Duration(h.SampleRate) < o.minSubdivide {
		return "", 0, fmt.Errorf("%s: %w: %w", span, ErrChunkTooSmall, terr)
	}

	o.emit(ctx, Event{
		Kind:  EventSubdivide,
		Start: time.Duration(span.Start) * time.Second / time.Duration(h.SampleRate),
		End:   time.Duration(span.End) * time.Second / time.Duration(h.SampleRate),
	})

	leftText, leftWords, err := o.transcribeSpan(ctx, h, left)
	if err != nil {
		return "", 0, err
	}
	rightText, rightWords, err := o.transcribeSpan(ctx, h, right)
	if err != nil {
		return "", 0, err
	}

	return joinTexts(leftText, rightText), leftWords + rightWords, nil
}

// joinTexts concatenates two transcript fragments with a single space,
// tolerating empty fragments.
func joinTexts(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// emit sends ev to the progress channel, giving up if ctx is canceled so a
// stalled consumer cannot wedge the run forever.
func (o *Orchestrator) emit(ctx context.Context, ev Event) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- ev:
	case <-ctx.Done():
	}
}
