// Package vectordb defines persistence of embedded chunks and
// metadata-filtered nearest-neighbor search over them.
package vectordb

import (
	"context"

	"github.com/studykit/corpus/schema"
)

// Filter scopes every store read. OwnerID is mandatory on all queries,
// tenant isolation is enforced here rather than left to callers. Empty
// Subject or Chapter means no constraint on that field.
type Filter struct {
	OwnerID string
	Subject string
	Chapter string
}

// Record is the persisted unit: a tagged chunk with its embedding and
// deduplication hash. Records are immutable once written.
type Record struct {
	Chunk       schema.Chunk
	Embedding   []float32
	ContentHash string
}

// Match is a search hit with its vector distance (lower is closer).
type Match struct {
	Chunk    schema.Chunk
	Distance float64
}

// VectorStore persists records and serves filtered similarity search.
// Implementations must allow concurrent reads; writes may be serialized.
type VectorStore interface {
	// AddRecords persists the batch, skipping records whose
	// (owner, subject, chapter, content hash) identity already exists.
	// It returns the number of newly persisted records.
	AddRecords(ctx context.Context, records []Record) (int, error)
	// SimilaritySearch returns up to k closest records within the filter scope.
	SimilaritySearch(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error)
	// PageChunks returns up to limit chunks of the given source page within
	// the filter scope, used for neighbor-page expansion.
	PageChunks(ctx context.Context, filter Filter, source string, page, limit int) ([]schema.Chunk, error)
	// AssetFingerprint reports the stored content fingerprint of a source
	// document within the filter scope, if any.
	AssetFingerprint(ctx context.Context, filter Filter, source string) (uint64, bool, error)
	// SetAssetFingerprint records the content fingerprint of an ingested
	// source document.
	SetAssetFingerprint(ctx context.Context, filter Filter, source string, fingerprint uint64) error
}
