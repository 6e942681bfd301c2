package service

import (
	"context"
	"fmt"
	"math"

	"github.com/studykit/corpus/schema"
	"github.com/studykit/corpus/vectordb"
)

// Query embeds the question and returns the closest chunks within the
// request scope, each with a confidence score in [0, 1]. Unless disabled,
// every hit also pulls one chunk from each adjacent page of its source
// document; neighbors carry a damped confidence and do not count toward K.
func (s *Service) Query(ctx context.Context, req QueryRequest) ([]schema.QueryResult, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidOwner
	}
	k := req.K
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}
	filter := vectordb.Filter{OwnerID: req.OwnerID, Subject: req.Subject, Chapter: req.Chapter}

	vector, err := s.embedder.EmbedQuery(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.store.SimilaritySearch(ctx, vector, k, filter)
	if err != nil {
		return nil, err
	}
	results := make([]schema.QueryResult, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		results = append(results, schema.QueryResult{
			Content:    match.Chunk.Content,
			Metadata:   match.Chunk.Metadata,
			Confidence: confidence(match.Distance),
			ChunkID:    match.Chunk.Metadata.ChunkID,
		})
		seen[match.Chunk.Metadata.ChunkID] = true
	}
	if req.DisableNeighbors {
		return results, nil
	}

	var neighbors []schema.QueryResult
	for _, primary := range results {
		for _, page := range []int{primary.Metadata.Page - 1, primary.Metadata.Page + 1} {
			if page < 1 {
				continue
			}
			chunks, err := s.store.PageChunks(ctx, filter, primary.Metadata.Source, page, 1)
			if err != nil {
				return nil, err
			}
			for _, chunk := range chunks {
				if seen[chunk.Metadata.ChunkID] {
					continue
				}
				seen[chunk.Metadata.ChunkID] = true
				neighbors = append(neighbors, schema.QueryResult{
					Content:    chunk.Content,
					Metadata:   chunk.Metadata,
					Confidence: round4(primary.Confidence * neighborDamping),
					ChunkID:    chunk.Metadata.ChunkID,
					IsNeighbor: true,
				})
			}
		}
	}
	return append(results, neighbors...), nil
}

// confidence maps a distance to a score in [0, 1], rounded to 4 decimals.
func confidence(distance float64) float64 {
	return round4(math.Max(0, 1-distance))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
