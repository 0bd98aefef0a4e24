package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Compile-time interface compliance checks.
var (
	_ Engine           = (*OpenAI)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// audioTranscriber is the subset of the OpenAI client used here.
// *openai.Client implements this implicitly; tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAI transcribes audio through OpenAI's hosted transcription API.
// Transient failures (rate limits, timeouts, server errors) are retried with
// exponential backoff; an oversized upload is classified as resource
// exhaustion so the orchestrator can recover by chunking.
type OpenAI struct {
	client     audioTranscriber
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// OpenAIOption configures an OpenAI engine.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the transcription model identifier.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAIClient injects a custom API client (for testing).
func WithOpenAIClient(c audioTranscriber) OpenAIOption {
	return func(o *OpenAI) {
		o.client = c
	}
}

// WithOpenAIMaxRetries sets the maximum number of retry attempts.
func WithOpenAIMaxRetries(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithOpenAIRetryDelays sets the base and max delays for exponential backoff.
func WithOpenAIRetryDelays(base, max time.Duration) OpenAIOption {
	return func(o *OpenAI) {
		if base > 0 {
			o.baseDelay = base
		}
		if max > 0 {
			o.maxDelay = max
		}
	}
}

// NewOpenAI creates an OpenAI engine authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		model:      DefaultOpenAIModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = openai.NewClient(apiKey)
	}
	return o
}

// Transcribe uploads the audio file and returns the recognized text.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
	}

	cfg := RetryConfig{
		MaxRetries: o.maxRetries,
		BaseDelay:  o.baseDelay,
		MaxDelay:   o.maxDelay,
	}

	text, err := retryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := o.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyOpenAIErr(err)
		}
		return resp.Text, nil
	}, isRetryable)
	if err != nil {
		return Result{}, err
	}

	return NewResult(text), nil
}

// classifyOpenAIErr maps OpenAI API errors to sentinel errors.
func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusRequestEntityTooLarge:
			// The upload exceeded the API's content size limit. To the
			// orchestrator this is the same condition as a local OOM: the
			// input is too big, send smaller pieces.
			return fmt.Errorf("%s: %w", apiErr.Message, ErrResourceExhausted)
		case http.StatusTooManyRequests:
			// Distinguish between temporary rate limit and quota exceeded
			// (billing issue). Quota exceeded should not be retried.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrTimeout)
		}
		if strings.Contains(strings.ToLower(apiErr.Message), "content size limit") {
			return fmt.Errorf("%s: %w", apiErr.Message, ErrResourceExhausted)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}

	return err
}

// isRetryable determines if an error is transient and worth another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout) {
		return true
	}

	// Server errors (5xx) are retryable.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	// Resource exhaustion is the orchestrator's problem, not the retry
	// loop's: retrying the same oversized upload cannot succeed.
	return false
}
