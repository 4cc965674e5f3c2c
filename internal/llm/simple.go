package llm

import (
	"context"
	"strings"
	"unicode"
)

// SimpleDimension is the vector size produced by SimpleEmbedder.
const SimpleDimension = 32

// SimpleEmbedder produces cheap character-statistics vectors. It needs no
// external service, so it serves as the default when no embeddings provider
// is configured and as a deterministic embedder in tests. Not suitable for
// real semantic search.
type SimpleEmbedder struct{}

// NewSimpleEmbedder creates a dependency-free fallback embedder.
func NewSimpleEmbedder() *SimpleEmbedder {
	return &SimpleEmbedder{}
}

// EmbedTexts generates a 32-dimensional vector per text: five text
// statistics, per-letter frequencies for a-z, and a newline count, scaled
// so the largest component is 1.
func (e *SimpleEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = simpleVector(text)
	}
	return result, nil
}

// Dimension returns the fixed vector size.
func (e *SimpleEmbedder) Dimension() int {
	return SimpleDimension
}

func simpleVector(text string) []float32 {
	lower := strings.ToLower(text)
	textLen := len(text)
	if textLen == 0 {
		textLen = 1
	}

	vec := make([]float64, 0, SimpleDimension)

	capitals := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			capitals++
		}
	}

	vec = append(vec, cap1(float64(len(text))/500.0))
	vec = append(vec, cap1(float64(strings.Count(text, " "))/100.0))
	vec = append(vec, cap1(float64(strings.Count(text, "."))/10.0))
	vec = append(vec, cap1(float64(strings.Count(text, ","))/20.0))
	vec = append(vec, cap1(float64(capitals)/50.0))

	for ch := 'a'; ch <= 'z'; ch++ {
		freq := float64(strings.Count(lower, string(ch))) / float64(textLen)
		vec = append(vec, cap1(freq*10))
	}

	vec = append(vec, cap1(float64(strings.Count(text, "\n"))/10.0))

	maxVal := 0.0
	for _, v := range vec {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]float32, len(vec))
	if maxVal > 0 {
		for i, v := range vec {
			out[i] = float32(v / maxVal)
		}
	}
	return out
}

func cap1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
