package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request (mismatched lengths, empty ids).
	ErrInvalidInput = errors.New("invalid input")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingService signals any embedding provider failure: timeout, auth, quota, network.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrIndexUnavailable signals that the vector index was never populated or was reset.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrCorpusUnavailable signals a missing or unreadable static corpus. Fatal for callers.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)
