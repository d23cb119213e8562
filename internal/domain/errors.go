package domain

import "errors"

var (
	// ErrIngest signals a bad or missing ingestion source.
	ErrIngest = errors.New("ingest source invalid")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrStore signals a chunk store persistence failure.
	ErrStore = errors.New("chunk store failure")
	// ErrRetrieval signals a search failure against a built index.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrModelUnavailable signals that the chat model is unreachable or
	// exhausted its client-side retries.
	ErrModelUnavailable = errors.New("chat model unavailable")
	// ErrAgentLoopExceeded signals that the router hit its tool-call cap.
	ErrAgentLoopExceeded = errors.New("agent tool-call limit exceeded")
)
