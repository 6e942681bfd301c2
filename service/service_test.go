package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studykit/corpus/schema"
	"github.com/studykit/corpus/vectordb"
	"github.com/studykit/corpus/vectordb/sqlite"
)

// axisEmbedder maps texts onto fixed orthogonal vectors by keyword so
// similarity in tests is fully deterministic.
type axisEmbedder struct{}

func (e axisEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (axisEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "algebra"):
		return []float32{1, 0, 0}
	case strings.Contains(lower, "photosynthesis"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func newTestService(t *testing.T) (*Service, vectordb.VectorStore) {
	t.Helper()
	store, err := sqlite.New(sqlite.WithDSN(filepath.Join(t.TempDir(), "corpus.db")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return New(axisEmbedder{}, store), store
}

func writeTextFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestIngestAndQuery(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	path := writeTextFile(t, dir, "notes.txt",
		"Algebra studies equations. Algebra generalizes arithmetic. Photosynthesis converts light to energy.")

	summary, err := svc.Ingest(context.Background(), IngestRequest{
		Path: path, OwnerID: "alice", Subject: "math", Chapter: "1",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.UniqueChunks == 0 {
		t.Fatalf("expected persisted chunks, got summary %+v", summary)
	}

	results, err := svc.Query(context.Background(), QueryRequest{
		Question: "what is algebra", OwnerID: "alice",
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	top := results[0]
	if !strings.Contains(strings.ToLower(top.Content), "algebra") {
		t.Errorf("expected algebra content first, got %q", top.Content)
	}
	if top.Confidence <= 0 || top.Confidence > 1 {
		t.Errorf("confidence out of range: %v", top.Confidence)
	}
	if top.ChunkID == "" {
		t.Error("expected chunk id")
	}
	if top.Metadata.OwnerID != "alice" || top.Metadata.Subject != "math" {
		t.Errorf("unexpected metadata: %+v", top.Metadata)
	}
}

func TestIngestRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Ingest(context.Background(), IngestRequest{Path: "notes.txt"}); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
}

func TestQueryRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Query(context.Background(), QueryRequest{Question: "algebra"}); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
}

func TestIngestUnchangedContentSkipped(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	path := writeTextFile(t, dir, "notes.txt", "Algebra studies equations.")
	req := IngestRequest{Path: path, OwnerID: "alice", Subject: "math"}

	first, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.UniqueChunks != 1 {
		t.Fatalf("expected 1 chunk, got %d", first.UniqueChunks)
	}
	second, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !second.Unchanged {
		t.Errorf("expected unchanged skip, got %+v", second)
	}
	if second.UniqueChunks != 0 {
		t.Errorf("expected no new chunks, got %d", second.UniqueChunks)
	}
}

func TestIngestDuplicateContentAcrossFiles(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	content := "Algebra studies equations."
	first := writeTextFile(t, dir, "a.txt", content)
	copied := writeTextFile(t, dir, "b.txt", content)

	if _, err := svc.Ingest(context.Background(), IngestRequest{Path: first, OwnerID: "alice", Subject: "math"}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	summary, err := svc.Ingest(context.Background(), IngestRequest{Path: copied, OwnerID: "alice", Subject: "math"})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if summary.UniqueChunks != 0 || summary.Duplicates != 1 {
		t.Errorf("expected duplicate skip, got %+v", summary)
	}

	// The same content under another owner is not a duplicate.
	other, err := svc.Ingest(context.Background(), IngestRequest{Path: first, OwnerID: "bob", Subject: "math"})
	if err != nil {
		t.Fatalf("other owner ingest: %v", err)
	}
	if other.UniqueChunks != 1 {
		t.Errorf("expected insert for other owner, got %+v", other)
	}
}

func TestIngestMissingFile(t *testing.T) {
	svc, _ := newTestService(t)
	path := filepath.Join(t.TempDir(), "absent.txt")
	if _, err := svc.Ingest(context.Background(), IngestRequest{Path: path, OwnerID: "alice"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestQueryTenantIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	path := writeTextFile(t, dir, "notes.txt", "Algebra studies equations.")
	if _, err := svc.Ingest(context.Background(), IngestRequest{Path: path, OwnerID: "alice", Subject: "math"}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	results, err := svc.Query(context.Background(), QueryRequest{Question: "algebra", OwnerID: "bob"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no cross-tenant results, got %d", len(results))
	}
}

func seedPages(t *testing.T, store vectordb.VectorStore, owner, source string, pages ...int) {
	t.Helper()
	records := make([]vectordb.Record, 0, len(pages))
	for _, page := range pages {
		content := fmt.Sprintf("Algebra page %d.", page)
		records = append(records, vectordb.Record{
			Chunk: schema.Chunk{
				Content: content,
				Metadata: schema.ChunkMetadata{
					Source:   source,
					Page:     page,
					FileType: schema.FileTypePDFText,
					OwnerID:  owner,
					Subject:  "math",
					ChunkID:  fmt.Sprintf("%s-p%d", source, page),
				},
			},
			Embedding:   []float32{1, 0, float32(page) / 100},
			ContentHash: fmt.Sprintf("hash-%s-%d", source, page),
		})
	}
	if _, err := store.AddRecords(context.Background(), records); err != nil {
		t.Fatalf("seed records: %v", err)
	}
}

func TestQueryNeighborExpansion(t *testing.T) {
	svc, store := newTestService(t)
	seedPages(t, store, "alice", "book.pdf", 1, 2, 3)

	results, err := svc.Query(context.Background(), QueryRequest{
		Question: "algebra", OwnerID: "alice", K: 1,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var primaries, neighbors []schema.QueryResult
	for _, r := range results {
		if r.IsNeighbor {
			neighbors = append(neighbors, r)
		} else {
			primaries = append(primaries, r)
		}
	}
	if len(primaries) != 1 {
		t.Fatalf("expected 1 primary, got %d", len(primaries))
	}
	primary := primaries[0]
	if primary.Metadata.Page != 1 {
		t.Fatalf("expected page 1 closest, got page %d", primary.Metadata.Page)
	}
	// Page 1 has a single neighbor page.
	if len(neighbors) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(neighbors))
	}
	neighbor := neighbors[0]
	if neighbor.Metadata.Page != 2 {
		t.Errorf("expected neighbor page 2, got %d", neighbor.Metadata.Page)
	}
	want := round4(primary.Confidence * neighborDamping)
	if neighbor.Confidence != want {
		t.Errorf("neighbor confidence = %v, want %v", neighbor.Confidence, want)
	}
	// Neighbors come after primaries.
	if results[0].IsNeighbor {
		t.Error("expected primary first")
	}
}

func TestQueryNeighborsNoDuplicates(t *testing.T) {
	svc, store := newTestService(t)
	seedPages(t, store, "alice", "book.pdf", 1, 2, 3)

	results, err := svc.Query(context.Background(), QueryRequest{
		Question: "algebra", OwnerID: "alice", K: 3,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.ChunkID] {
			t.Fatalf("duplicate chunk %s in results", r.ChunkID)
		}
		seen[r.ChunkID] = true
	}
	// All three pages are primaries, so nothing is left to expand to.
	for _, r := range results {
		if r.IsNeighbor {
			t.Errorf("unexpected neighbor %s", r.ChunkID)
		}
	}
}

func TestQueryDisableNeighbors(t *testing.T) {
	svc, store := newTestService(t)
	seedPages(t, store, "alice", "book.pdf", 1, 2, 3)

	results, err := svc.Query(context.Background(), QueryRequest{
		Question: "algebra", OwnerID: "alice", K: 1, DisableNeighbors: true,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].IsNeighbor {
		t.Error("unexpected neighbor result")
	}
}

func TestQueryKBounds(t *testing.T) {
	svc, store := newTestService(t)
	pages := make([]int, 0, 12)
	for p := 1; p <= 12; p++ {
		pages = append(pages, p)
	}
	seedPages(t, store, "alice", "book.pdf", pages...)

	testCases := []struct {
		name string
		k    int
		want int
	}{
		{name: "default", k: 0, want: 3},
		{name: "explicit", k: 5, want: 5},
		{name: "capped", k: 50, want: 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := svc.Query(context.Background(), QueryRequest{
				Question: "algebra", OwnerID: "alice", K: tc.k, DisableNeighbors: true,
			})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(results) != tc.want {
				t.Errorf("k=%d: got %d results, want %d", tc.k, len(results), tc.want)
			}
		})
	}
}

func TestQuerySubjectFilter(t *testing.T) {
	svc, store := newTestService(t)
	seedPages(t, store, "alice", "math.pdf", 1)
	records := []vectordb.Record{{
		Chunk: schema.Chunk{
			Content: "Photosynthesis converts light.",
			Metadata: schema.ChunkMetadata{
				Source: "bio.pdf", Page: 1, FileType: schema.FileTypePDFText,
				OwnerID: "alice", Subject: "biology", ChunkID: "bio-p1",
			},
		},
		Embedding:   []float32{0, 1, 0},
		ContentHash: "hash-bio-1",
	}}
	if _, err := store.AddRecords(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := svc.Query(context.Background(), QueryRequest{
		Question: "photosynthesis", OwnerID: "alice", Subject: "math", DisableNeighbors: true,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, r := range results {
		if r.Metadata.Subject != "math" {
			t.Errorf("result outside subject scope: %+v", r.Metadata)
		}
	}
}

func TestConfidenceRounding(t *testing.T) {
	testCases := []struct {
		distance float64
		want     float64
	}{
		{distance: 0, want: 1},
		{distance: 0.25, want: 0.75},
		{distance: 0.123456, want: 0.8765},
		{distance: 1.5, want: 0},
	}
	for _, tc := range testCases {
		if got := confidence(tc.distance); got != tc.want {
			t.Errorf("confidence(%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}
