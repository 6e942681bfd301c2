package embeddings

import "context"

// Embedder is a minimal interface for computing vector embeddings
// for passages and queries. Implementations must be safe for
// concurrent use; a single instance is shared by ingestion and retrieval.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
