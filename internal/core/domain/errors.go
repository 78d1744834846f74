package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a webhook request carried a bad secret token.
	// No work is performed for unauthorized requests.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPoolSaturated indicates the background worker pool rejected a job
	// because its queue is full. The webhook still acknowledges the request;
	// the loss is logged and not recovered.
	ErrPoolSaturated = errors.New("worker pool saturated")

	// ErrCampaignRunning indicates an outreach campaign is already in flight.
	// A second campaign is rejected so row writes to a sheet never interleave.
	ErrCampaignRunning = errors.New("campaign already running")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Reindexing and semantic retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the chat model is not configured.
	// The bot cannot generate answers without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmptyDocument indicates a fetched document had no extractable text.
	// Reindexing treats this as "delete everything, insert nothing".
	ErrEmptyDocument = errors.New("document has no content")

	// ErrSheetAccess indicates the campaign sheet could not be read or written.
	ErrSheetAccess = errors.New("sheet access failed")
)
