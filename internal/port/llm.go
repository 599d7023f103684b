package port

import "context"

// LLM is a chat-completion client used for query expansion and chunk
// summarization. Calls cross a network boundary and must honor ctx.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)

	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	ModelName() string
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	Dimension() int
}
