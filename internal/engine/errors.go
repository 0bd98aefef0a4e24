package engine

import "errors"

// Sentinel errors for engine failures. Implementations classify their native
// error types into these at the adapter boundary; callers check with
// errors.Is.
var (
	// ErrResourceExhausted indicates the engine ran out of working memory for
	// the given input size. Recoverable: the orchestrator responds by
	// chunking or subdividing, never by failing the run outright.
	ErrResourceExhausted = errors.New("engine resource exhausted")

	// ErrModelLoad indicates the model could not be loaded or initialized.
	ErrModelLoad = errors.New("model load failed")

	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")
)
