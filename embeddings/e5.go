package embeddings

import "context"

// E5-family models require asymmetric input marking: stored passages and
// query text are prefixed differently so that the two encodings remain
// comparable under cosine similarity.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// E5 decorates an Embedder with the passage/query prefix convention.
// Stored content stays clean; the prefix exists only in embedding input.
type E5 struct {
	Embedder
}

// NewE5 wraps an embedder with E5 input marking.
func NewE5(embedder Embedder) *E5 {
	return &E5{Embedder: embedder}
}

func (e *E5) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	prefixed := make([]string, len(docs))
	for i, doc := range docs {
		prefixed[i] = PassagePrefix + doc
	}
	return e.Embedder.EmbedDocuments(ctx, prefixed)
}

func (e *E5) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.Embedder.EmbedQuery(ctx, QueryPrefix+text)
}
