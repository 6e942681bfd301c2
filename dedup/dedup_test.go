package dedup

import (
	"testing"

	"github.com/studykit/corpus/schema"
)

func chunk(content string) schema.Chunk {
	return schema.Chunk{Content: content}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("Cell Division")
	b := Key("Cell Division")
	if a != b {
		t.Fatalf("same content produced different keys: %v vs %v", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 256-bit hex key, got %d chars", len(a))
	}
}

func TestKeyNormalizes(t *testing.T) {
	if Key("  Mitosis \n") != Key("mitosis") {
		t.Fatalf("expected trim+lowercase normalization before hashing")
	}
	if Key("mitosis") == Key("meiosis") {
		t.Fatalf("distinct content must not collide")
	}
}

func TestDedupe(t *testing.T) {
	chunks := []schema.Chunk{
		chunk("alpha"),
		chunk("beta"),
		chunk("Alpha "),
		chunk("gamma"),
		chunk("beta"),
	}
	unique := Dedupe(chunks)
	if len(unique) != 3 {
		t.Fatalf("expected 3 unique chunks, got %d", len(unique))
	}
	if unique[0].Content != "alpha" || unique[1].Content != "beta" || unique[2].Content != "gamma" {
		t.Fatalf("unexpected survivors: %+v", unique)
	}
}

func TestDedupeOrderIndependentOutcome(t *testing.T) {
	forward := []schema.Chunk{chunk("a"), chunk("b"), chunk("a"), chunk("c")}
	reversed := []schema.Chunk{chunk("c"), chunk("a"), chunk("b"), chunk("a")}

	uniqueKeys := func(chunks []schema.Chunk) map[string]bool {
		out := map[string]bool{}
		for _, c := range Dedupe(chunks) {
			out[Key(c.Content)] = true
		}
		return out
	}
	a, b := uniqueKeys(forward), uniqueKeys(reversed)
	if len(a) != len(b) {
		t.Fatalf("unique sets differ in size: %d vs %d", len(a), len(b))
	}
	for k := range a {
		if !b[k] {
			t.Fatalf("unique sets differ: %v missing", k)
		}
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
}
