// Package ranker orders stored text fragments by keyword overlap with a
// query and assembles a bounded response string. It is a deliberately
// non-semantic heuristic: a placeholder ranking for scopes whose embeddings
// were never computed, where vector similarity would be meaningless.
package ranker

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxResponseChars bounds the assembled response so it stays safe for
// callers with a limited context budget.
const MaxResponseChars = 8000

// minKeywordRunes is the exclusive lower bound on keyword length; shorter
// query tokens behave like stop words and are dropped.
const minKeywordRunes = 2

// ScoredFragment pairs a candidate fragment with its keyword-overlap score.
type ScoredFragment struct {
	Text  string
	Score int
}

// Keywords tokenizes a query into its keyword set: lowercased,
// whitespace-split tokens longer than two runes, deduplicated in order of
// first appearance. May be empty.
func Keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	var keywords []string
	seen := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		if utf8.RuneCountInString(w) <= minKeywordRunes {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

// ScoreFragment counts how many distinct keywords occur as substrings of
// the lowercased fragment. Each keyword contributes at most 1 regardless of
// repeat occurrences.
func ScoreFragment(keywords []string, fragment string) int {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(fragment)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	return score
}

// Rank scores every fragment against the query and returns them sorted by
// score descending. The sort is stable: ties keep their input order.
func Rank(query string, fragments []string) []ScoredFragment {
	keywords := Keywords(query)
	scored := make([]ScoredFragment, 0, len(fragments))
	for _, f := range fragments {
		scored = append(scored, ScoredFragment{Text: f, Score: ScoreFragment(keywords, f)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// BuildResponse ranks the fragments and concatenates them in score order,
// each followed by a blank line, stopping before a fragment would push the
// combined length past MaxResponseChars. If nothing fits (or nothing
// scored), it falls back to the first fragment's raw text, or "" when there
// are no fragments at all.
func BuildResponse(query string, fragments []string) string {
	ranked := Rank(query, fragments)

	var parts []string
	total := 0
	for _, frag := range ranked {
		n := utf8.RuneCountInString(frag.Text)
		if total+n > MaxResponseChars {
			break
		}
		parts = append(parts, frag.Text)
		total += n + 2 // blank-line separator
	}

	if len(parts) == 0 {
		if len(fragments) == 0 {
			return ""
		}
		return fragments[0]
	}
	return strings.Join(parts, "\n\n")
}
