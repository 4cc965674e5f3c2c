package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks github.com/docstore/docstore/internal/llm Embedder

import "context"

// Embedder turns texts into dense vectors for similarity search.
type Embedder interface {
	// EmbedTexts generates one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector size this embedder produces.
	Dimension() int
}
