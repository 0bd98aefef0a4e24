package audio

import "errors"

// ErrUnreadable indicates the input file could not be decoded: missing file,
// unsupported container, or corrupt stream. Fatal, never retried.
var ErrUnreadable = errors.New("audio file cannot be decoded")

// ErrSegmentWrite indicates a chunk segment could not be written to disk.
var ErrSegmentWrite = errors.New("segment write failed")
