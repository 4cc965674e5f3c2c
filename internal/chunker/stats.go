package chunker

import "unicode/utf8"

// ChunkStats summarizes the lengths of a chunk list. Lengths are measured
// in runes for consistency with the chunking strategies.
type ChunkStats struct {
	Count      int     `json:"count"`
	TotalChars int     `json:"total_chars"`
	AvgLength  float64 `json:"avg_length"`
	MinLength  int     `json:"min_length"`
	MaxLength  int     `json:"max_length"`
}

// Stats reports count, total, mean, min and max chunk lengths. An empty
// input yields the zero value.
func Stats(chunks []string) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}

	stats := ChunkStats{Count: len(chunks)}
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk)
		stats.TotalChars += n
		if i == 0 || n < stats.MinLength {
			stats.MinLength = n
		}
		if n > stats.MaxLength {
			stats.MaxLength = n
		}
	}
	stats.AvgLength = float64(stats.TotalChars) / float64(stats.Count)
	return stats
}
