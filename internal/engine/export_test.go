package engine

import "context"

// Test-only exports for white-box access from the external test package.

var (
	ClassifyWhisperErr = classifyWhisperErr
	ClassifyOpenAIErr  = classifyOpenAIErr
	IsRetryable        = isRetryable
)

// RetryStrings exposes the retry helper instantiated for string results.
func RetryStrings(
	ctx context.Context,
	cfg RetryConfig,
	fn func() (string, error),
	shouldRetry func(error) bool,
) (string, error) {
	return retryWithBackoff(ctx, cfg, fn, shouldRetry)
}
