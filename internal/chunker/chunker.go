// Package chunker splits raw document text into ordered, possibly
// overlapping chunks suitable for embedding and retrieval. All strategies
// are pure functions: they never fail on malformed input and degrade to an
// empty or single-chunk result instead.
package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the default window size in runes for ChunkText.
	DefaultChunkSize = 500
	// DefaultOverlap is the default overlap in runes between adjacent windows.
	DefaultOverlap = 50

	// boundarySearchWindow is how far back from the window end (in runes)
	// ChunkText looks for a sentence boundary before giving up and cutting
	// mid-sentence.
	boundarySearchWindow = 100
)

// boundaryMarkers are tried in priority order: the first marker found in the
// search window wins, even if a lower-priority marker occurs further right.
var boundaryMarkers = []string{". ", "! ", "? ", "\n\n"}

// ChunkText splits text into overlapping fixed-size windows, snapping the
// window end to a sentence boundary when one occurs within the last 100
// runes. Chunks are trimmed and empty results dropped. The next window
// starts at max(end-overlap, start+1), so the start offset strictly
// increases and the loop terminates even when overlap >= chunkSize.
//
// Sizes are measured in runes. An empty text yields nil; a text shorter
// than chunkSize yields a single chunk when overlap is zero. With a
// non-zero overlap the advance formula re-emits shrinking tails of the
// final window, so short inputs can produce several trailing chunks.
func ChunkText(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	total := len(runes)

	var chunks []string
	start := 0
	for start < total {
		end := start + chunkSize
		if end > total {
			end = total
		}

		// Snap to a sentence boundary, but only when the window is not the
		// tail of the text and is long enough to search.
		if end < total && end-start > boundarySearchWindow {
			searchStart := end - boundarySearchWindow
			window := string(runes[searchStart:end])
			for _, marker := range boundaryMarkers {
				if pos := strings.LastIndex(window, marker); pos != -1 {
					end = searchStart + len([]rune(window[:pos])) + len(marker)
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// sentenceBoundary matches the terminator of a sentence followed by
// whitespace. RE2 has no look-behind, so splitSentences cuts at match
// offsets instead of using a look-behind split.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// splitSentences splits text into sentences at whitespace that follows one
// of '.', '!' or '?', trimming each sentence and dropping empties. The
// terminating punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	prev := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[prev : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		prev = loc[1]
	}
	if tail := strings.TrimSpace(text[prev:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// ChunkBySentences groups consecutive sentences into chunks of up to
// maxSentences, advancing by max(1, maxSentences-overlapSentences) sentences
// per step so that sentences repeat across adjacent chunks when overlap > 0.
// Each chunk is the space-joined concatenation of its sentences.
func ChunkBySentences(text string, maxSentences, overlapSentences int) []string {
	if text == "" {
		return nil
	}
	if maxSentences < 1 {
		maxSentences = 1
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	step := maxSentences - overlapSentences
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(sentences); i += step {
		end := i + maxSentences
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
	}
	return chunks
}

// ChunkByParagraphs splits text on blank lines and groups every
// maxParagraphs consecutive paragraphs into one chunk, joined by a blank
// line. This strategy has no overlap.
func ChunkByParagraphs(text string, maxParagraphs int) []string {
	if text == "" {
		return nil
	}
	if maxParagraphs < 1 {
		maxParagraphs = 1
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(paragraphs); i += maxParagraphs {
		end := i + maxParagraphs
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		chunks = append(chunks, strings.Join(paragraphs[i:end], "\n\n"))
	}
	return chunks
}
