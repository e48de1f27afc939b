// Package out defines outbound ports for external collaborators.
package out

import "context"

// CompletionPort is the text-completion collaborator. Implementations must
// honor ctx cancellation; callers treat any error as a stage-local failure.
type CompletionPort interface {
	// Complete returns plain text for a system+user prompt pair.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// CompleteJSON is like Complete but constrains the model to emit a
	// single JSON object.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EmbeddingPort turns text into a vector.
type EmbeddingPort interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
