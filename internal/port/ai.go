package port

import "context"

// TextGenerator abstracts the LLM backend used for classification and
// content generation. Implementations can target Anthropic, OpenAI, or
// any compatible chat API.
type TextGenerator interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Generate sends a prompt and returns the model's text response.
	// A non-empty systemPrompt sets the assistant persona.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
