package llm

import (
	"context"
	"testing"
)

func TestSimpleEmbedder_EmbedTexts(t *testing.T) {
	embedder := NewSimpleEmbedder()
	ctx := context.Background()

	texts := []string{
		"Hello, World. This is a test.",
		"another text without capitals",
		"",
	}
	embeddings, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(embeddings) != len(texts) {
		t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(embeddings), len(texts))
	}
	for i, vec := range embeddings {
		if len(vec) != SimpleDimension {
			t.Errorf("embedding[%d] size = %d, want %d", i, len(vec), SimpleDimension)
		}
	}
}

func TestSimpleEmbedder_Deterministic(t *testing.T) {
	embedder := NewSimpleEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedTexts(ctx, []string{"Some stable input text."})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	second, err := embedder.EmbedTexts(ctx, []string{"Some stable input text."})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}

	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatalf("embedding component %d differs between calls: %v vs %v", i, first[0][i], second[0][i])
		}
	}
}

func TestSimpleEmbedder_Normalized(t *testing.T) {
	vec := simpleVector("The quick brown fox jumps over the lazy dog. It barked, twice.")

	maxVal := float32(0)
	for _, v := range vec {
		if v < 0 || v > 1 {
			t.Errorf("component %v out of [0, 1]", v)
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal != 1.0 {
		t.Errorf("max component = %v, want 1.0 after scaling", maxVal)
	}
}

func TestSimpleEmbedder_EmptyText(t *testing.T) {
	vec := simpleVector("")

	if len(vec) != SimpleDimension {
		t.Fatalf("vector size = %d, want %d", len(vec), SimpleDimension)
	}
	for i, v := range vec {
		if v != 0 {
			t.Errorf("component %d = %v, want 0 for empty text", i, v)
		}
	}
}

func TestSimpleEmbedder_DistinguishesTexts(t *testing.T) {
	a := simpleVector("aaaa aaaa aaaa")
	b := simpleVector("zzzz. Zzzz. ZZZZ.")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestSimpleEmbedder_Dimension(t *testing.T) {
	if got := NewSimpleEmbedder().Dimension(); got != SimpleDimension {
		t.Errorf("Dimension() = %d, want %d", got, SimpleDimension)
	}
}
