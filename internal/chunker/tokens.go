package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text into token ids and decodes token ids back to text.
// ChunkByTokens accepts any implementation; when none is supplied it falls
// back to whitespace word splitting.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// ChunkByTokens splits text into windows of at most maxTokens tokens,
// advancing by max(1, maxTokens-overlapTokens) tokens per step.
//
// With a nil tokenizer, tokens are whitespace-delimited words and each chunk
// is the space-joined window. With a tokenizer, the identical windowing is
// applied to its token-id sequence and each window is decoded back to text.
func ChunkByTokens(text string, maxTokens, overlapTokens int, tok Tokenizer) []string {
	if text == "" {
		return nil
	}
	if maxTokens < 1 {
		maxTokens = 1
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	step := maxTokens - overlapTokens
	if step < 1 {
		step = 1
	}

	if tok == nil {
		words := strings.Fields(text)
		var chunks []string
		for i := 0; i < len(words); i += step {
			end := i + maxTokens
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, strings.Join(words[i:end], " "))
		}
		return chunks
	}

	ids := tok.Encode(text)
	var chunks []string
	for i := 0; i < len(ids); i += step {
		end := i + maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, tok.Decode(ids[i:end]))
	}
	return chunks
}

// TiktokenTokenizer adapts a tiktoken encoding to the Tokenizer interface.
// Common encodings: "cl100k_base" (GPT-4, ChatGPT), "p50k_base" (GPT-3).
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer creates a tokenizer for the named tiktoken encoding.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Encode returns the token ids for text under the configured encoding.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode reassembles token ids into text.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
