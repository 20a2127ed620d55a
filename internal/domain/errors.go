package domain

import "errors"

var (
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("document not found")
	// ErrValidation signals malformed input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidConfig signals missing or inconsistent connection settings.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreFailure signals a failed index or table operation.
	ErrStoreFailure = errors.New("vector store failure")
	// ErrUnavailable signals a network-class failure. Safe to retry.
	ErrUnavailable = errors.New("transient network failure")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrListingUnsupported signals that the deployment tier cannot list vectors.
	ErrListingUnsupported = errors.New("listing not supported on this deployment tier")
)

// Retryable reports whether an operation that failed with err may succeed on
// a later attempt. Only network-class and rate-limit failures qualify;
// validation and provider-shape errors cannot be fixed by retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}
