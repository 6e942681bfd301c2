// Package chunker splits cleaned text into semantically coherent,
// size-bounded spans.
package chunker

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/studykit/corpus/embeddings"
)

const (
	// DefaultMaxChunkSize bounds chunk content length in characters.
	DefaultMaxChunkSize = 1200
	// DefaultBreakpointPercentile marks the embedding-distance percentile
	// treated as a topic boundary between consecutive sentences.
	DefaultBreakpointPercentile = 92
)

var sentencePattern = regexp.MustCompile(`(?mU)[^.!?]+[.!?]`)

// Semantic groups consecutive sentences until the embedding distance between
// neighbors crosses a percentile threshold, then hard-caps every span to the
// maximum size on word boundaries.
type Semantic struct {
	embedder             embeddings.Embedder
	maxChunkSize         int
	breakpointPercentile float64
}

// Option configures a Semantic chunker.
type Option func(*Semantic)

// WithMaxChunkSize overrides the chunk size cap in characters.
func WithMaxChunkSize(size int) Option {
	return func(s *Semantic) {
		if size > 0 {
			s.maxChunkSize = size
		}
	}
}

// WithBreakpointPercentile overrides the topic-boundary percentile.
func WithBreakpointPercentile(percentile float64) Option {
	return func(s *Semantic) {
		if percentile > 0 && percentile <= 100 {
			s.breakpointPercentile = percentile
		}
	}
}

// NewSemantic creates a semantic chunker backed by the supplied embedder.
func NewSemantic(embedder embeddings.Embedder, opts ...Option) *Semantic {
	s := &Semantic{
		embedder:             embedder,
		maxChunkSize:         DefaultMaxChunkSize,
		breakpointPercentile: DefaultBreakpointPercentile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxChunkSize returns the configured content length cap.
func (s *Semantic) MaxChunkSize() int {
	return s.maxChunkSize
}

// Chunk splits text into spans no longer than the configured maximum.
// Empty or whitespace-only input yields zero chunks and no error.
func (s *Semantic) Chunk(ctx context.Context, text string) ([]string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	spans := sentences
	if len(sentences) > 1 {
		vectors, err := s.embedder.EmbedDocuments(ctx, sentences)
		if err != nil {
			return nil, fmt.Errorf("embed sentences: %w", err)
		}
		if len(vectors) != len(sentences) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d sentences", len(vectors), len(sentences))
		}
		spans = groupByBreakpoints(sentences, vectors, s.breakpointPercentile)
	}

	var chunks []string
	for _, span := range spans {
		if len(span) <= s.maxChunkSize {
			chunks = append(chunks, span)
			continue
		}
		chunks = append(chunks, splitByWords(span, s.maxChunkSize)...)
	}
	return chunks, nil
}

// splitSentences extracts sentence-like units, keeping any trailing text
// without terminal punctuation as a final sentence.
func splitSentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	matches := sentencePattern.FindAllStringIndex(trimmed, -1)
	if len(matches) == 0 {
		return []string{trimmed}
	}
	var sentences []string
	end := 0
	for _, match := range matches {
		sentence := strings.TrimSpace(trimmed[match[0]:match[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		end = match[1]
	}
	if rest := strings.TrimSpace(trimmed[end:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// groupByBreakpoints joins consecutive sentences into spans, starting a new
// span wherever the distance between neighboring sentence embeddings exceeds
// the given percentile of all neighbor distances.
func groupByBreakpoints(sentences []string, vectors [][]float32, percentile float64) []string {
	distances := make([]float64, len(sentences)-1)
	for i := range distances {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := percentileOf(distances, percentile)

	var spans []string
	var current []string
	for i, sentence := range sentences {
		current = append(current, sentence)
		if i < len(distances) && distances[i] > threshold {
			spans = append(spans, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		spans = append(spans, strings.Join(current, " "))
	}
	return spans
}

func percentileOf(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	rank := int(math.Ceil(percentile/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}
