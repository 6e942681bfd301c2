package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studykit/corpus/cleaner"
	"github.com/studykit/corpus/dedup"
	"github.com/studykit/corpus/loader"
	"github.com/studykit/corpus/schema"
	"github.com/studykit/corpus/vectordb"
)

// Ingest runs the full pipeline for one document: load/OCR, clean, chunk,
// deduplicate, tag, embed and persist. Per-page OCR failures surface as
// warnings on the summary; any other failure aborts the document. Nothing
// is persisted until the whole batch is deduplicated and embedded.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestSummary, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidOwner
	}
	filter := vectordb.Filter{OwnerID: req.OwnerID, Subject: req.Subject, Chapter: req.Chapter}

	exists, err := s.fs.Exists(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", req.Path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", req.Path, loader.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Path, err)
	}
	current, err := fingerprint(data)
	if err != nil {
		return nil, err
	}
	if stored, ok, err := s.store.AssetFingerprint(ctx, filter, req.Path); err != nil {
		return nil, err
	} else if ok && stored == current {
		s.logPrintf("skipping %s: content unchanged", req.Path)
		return &IngestSummary{Source: req.Path, Unchanged: true}, nil
	}

	result, err := s.loader.Load(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	summary := &IngestSummary{
		Source:         req.Path,
		PagesProcessed: len(result.Pages),
		PagesSkipped:   result.PagesSkipped,
		Warnings:       result.Warnings,
	}
	if len(result.Pages) == 0 {
		if result.PagesTotal > 0 && result.PagesSkipped == result.PagesTotal {
			return nil, fmt.Errorf("%s: every page failed: %w", req.Path, loader.ErrEmptyExtraction)
		}
		summary.Warnings = append(summary.Warnings, loader.ErrEmptyExtraction.Error())
		return summary, nil
	}

	var chunks []schema.Chunk
	for _, page := range result.Pages {
		text := cleaner.Clean(page.Text)
		spans, err := s.chunker.Chunk(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("chunk %s page %d: %w", req.Path, page.Page, err)
		}
		for _, span := range spans {
			chunks = append(chunks, schema.Chunk{
				Content: span,
				Metadata: schema.ChunkMetadata{
					Source:   page.Source,
					Page:     page.Page,
					FileType: result.FileType,
				},
			})
		}
	}

	unique := dedup.Dedupe(chunks)
	s.logPrintf("%s: %d chunks, %d unique after deduplication", req.Path, len(chunks), len(unique))
	if len(unique) == 0 {
		summary.Warnings = append(summary.Warnings, "no content after chunking")
		return summary, nil
	}

	records := make([]vectordb.Record, len(unique))
	texts := make([]string, len(unique))
	for i, chunk := range unique {
		chunk.Metadata.OwnerID = req.OwnerID
		chunk.Metadata.Subject = req.Subject
		chunk.Metadata.Chapter = req.Chapter
		chunk.Metadata.ChunkID = uuid.NewString()
		records[i] = vectordb.Record{Chunk: chunk, ContentHash: dedup.Key(chunk.Content)}
		texts[i] = chunk.Content
	}
	vectors, err := s.embedBatches(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", req.Path, err)
	}
	for i := range records {
		records[i].Embedding = vectors[i]
	}

	inserted, err := s.store.AddRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persist %s: %w", req.Path, err)
	}
	if err := s.store.SetAssetFingerprint(ctx, filter, req.Path, current); err != nil {
		return nil, err
	}
	summary.UniqueChunks = inserted
	summary.Duplicates = len(unique) - inserted
	s.logPrintf("%s: persisted %d new chunks (%d duplicates)", req.Path, inserted, summary.Duplicates)
	return summary, nil
}

func (s *Service) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.embedder.EmbedDocuments(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), end-i)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
