// Package scoring defines the interface for structured-generation backends
// that score an interview transcript.
package scoring

import "context"

// Request carries the prompt material for one scoring call.
type Request struct {
	// SystemPrompt frames the backend's role.
	SystemPrompt string
	// Prompt is the full scoring prompt including the formatted transcript.
	Prompt string
}

// Adapter defines the interface for scoring backends (OpenAI, mock, etc.).
// Implementations are constrained to the feedback schema but are treated as
// fallible: the returned bytes may not conform and must be validated by the
// caller before use.
type Adapter interface {
	// Generate performs one structured-generation call and returns the raw
	// response payload, expected to be a JSON document.
	Generate(ctx context.Context, req Request) ([]byte, error)
}
