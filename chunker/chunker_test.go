package chunker

import (
	"context"
	"strings"
	"testing"
)

// topicEmbedder maps sentences to axis-aligned vectors by keyword so that
// sentences about the same topic are identical and topic switches produce a
// large neighbor distance.
type topicEmbedder struct{}

func (topicEmbedder) vector(text string) []float32 {
	switch {
	case strings.Contains(text, "cell"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "war"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (e topicEmbedder) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		out[i] = e.vector(doc)
	}
	return out, nil
}

func (e topicEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewSemantic(topicEmbedder{})
	for _, input := range []string{"", "   ", "\n\t"} {
		chunks, err := c.Chunk(context.Background(), input)
		if err != nil {
			t.Fatalf("Chunk(%q): %v", input, err)
		}
		if len(chunks) != 0 {
			t.Fatalf("Chunk(%q) = %v, expected no chunks", input, chunks)
		}
	}
}

func TestChunkGroupsByTopic(t *testing.T) {
	c := NewSemantic(topicEmbedder{}, WithBreakpointPercentile(50))
	text := "The cell divides. The cell has a nucleus. The war began in 1914. The war ended in 1918."
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected a topic boundary, got chunks %v", chunks)
	}
	if !strings.Contains(chunks[0], "cell") || strings.Contains(chunks[0], "war") {
		t.Fatalf("first chunk should cover the cell topic only: %q", chunks[0])
	}
}

func TestChunkSizeBound(t *testing.T) {
	c := NewSemantic(topicEmbedder{}, WithMaxChunkSize(40))
	text := strings.Repeat("The cell divides into daughter cells. ", 20)
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, chunk := range chunks {
		if len(chunk) > 40 {
			t.Fatalf("chunk exceeds size bound: %d chars: %q", len(chunk), chunk)
		}
	}
}

func TestChunkSingleSentence(t *testing.T) {
	c := NewSemantic(topicEmbedder{})
	chunks, err := c.Chunk(context.Background(), "no terminal punctuation here")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "no terminal punctuation here" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitByWords(t *testing.T) {
	spans := splitByWords("alpha beta gamma delta", 11)
	for _, span := range spans {
		if len(span) > 11 {
			t.Fatalf("span %q exceeds cap", span)
		}
	}
	if joined := strings.Join(spans, " "); joined != "alpha beta gamma delta" {
		t.Fatalf("order or content not preserved: %q", joined)
	}
	// A single oversized word is still bounded.
	long := splitByWords(strings.Repeat("x", 25), 10)
	for _, span := range long {
		if len(span) > 10 {
			t.Fatalf("oversized word not capped: %q", span)
		}
	}
}

func TestSplitSentencesKeepsRemainder(t *testing.T) {
	sentences := splitSentences("First sentence. trailing fragment")
	if len(sentences) != 2 || sentences[1] != "trailing fragment" {
		t.Fatalf("unexpected sentences: %v", sentences)
	}
}
