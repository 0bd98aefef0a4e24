package orchestrate

import "time"

// EventKind discriminates progress events.
type EventKind int

const (
	// EventChunkDone reports a chunk's transcription completed.
	EventChunkDone EventKind = iota

	// EventSubdivide reports that a chunk hit resource exhaustion and is
	// being retried as two halves.
	EventSubdivide

	// EventFallback reports that the whole-file attempt hit resource
	// exhaustion and the run is degrading into the chunked path.
	EventFallback
)

// Event is one entry in the progress stream. The orchestrator emits events
// in processing order; it makes no assumption about how (or whether) they
// are displayed.
type Event struct {
	Kind  EventKind
	Chunk int           // zero-based chunk index
	Total int           // number of chunks in the plan
	Words int           // words recognized in this chunk (EventChunkDone)
	Start time.Duration // chunk start position in the source audio
	End   time.Duration // chunk end position in the source audio
}
