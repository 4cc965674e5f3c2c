package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestGoldmarkSplitter_Split(t *testing.T) {
	splitter := NewGoldmarkSplitter()

	tests := []struct {
		name         string
		text         string
		levels       []int
		stripHeaders bool
		check        func([]Section) bool
	}{
		{
			name: "empty text",
			text: "",
			check: func(sections []Section) bool {
				return len(sections) == 0
			},
		},
		{
			name: "sections per heading",
			text: "# Intro\n\nSome intro text.\n\n# Usage\n\nHow to use it.",
			check: func(sections []Section) bool {
				return len(sections) == 2 &&
					sections[0].Heading == "Intro" &&
					sections[1].Heading == "Usage" &&
					strings.Contains(sections[0].Text, "Some intro text.") &&
					strings.Contains(sections[1].Text, "How to use it.")
			},
		},
		{
			name: "content before first heading",
			text: "Preamble text.\n\n# First\n\nBody.",
			check: func(sections []Section) bool {
				return len(sections) == 2 &&
					sections[0].Heading == "" &&
					strings.Contains(sections[0].Text, "Preamble text.")
			},
		},
		{
			name:         "strip headers drops heading line",
			text:         "# Title\n\nBody text.",
			stripHeaders: true,
			check: func(sections []Section) bool {
				return len(sections) == 1 &&
					sections[0].Heading == "Title" &&
					!strings.Contains(sections[0].Text, "# Title") &&
					strings.Contains(sections[0].Text, "Body text.")
			},
		},
		{
			name:   "untracked heading stays in section",
			text:   "# Top\n\nIntro.\n\n#### Deep\n\nDetails.",
			levels: []int{1, 2, 3},
			check: func(sections []Section) bool {
				return len(sections) == 1 &&
					strings.Contains(sections[0].Text, "Deep") &&
					strings.Contains(sections[0].Text, "Details.")
			},
		},
		{
			name: "code block preserved",
			text: "# API\n\n```go\nfmt.Println(\"hi\")\n```\n",
			check: func(sections []Section) bool {
				return len(sections) == 1 &&
					strings.Contains(sections[0].Text, "fmt.Println")
			},
		},
		{
			name: "multiline code block keeps every line",
			text: "# Setup\n\n```sh\ngo mod tidy\ngo build ./...\n```\n",
			check: func(sections []Section) bool {
				return len(sections) == 1 &&
					strings.Contains(sections[0].Text, "go mod tidy") &&
					strings.Contains(sections[0].Text, "go build ./...")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := splitter.Split(tt.text, tt.levels, tt.stripHeaders)
			if !tt.check(sections) {
				t.Errorf("Split() = %+v", sections)
			}
		})
	}
}

func TestChunkByHeadings(t *testing.T) {
	splitter := NewGoldmarkSplitter()

	chunks, err := ChunkByHeadings("# One\n\nFirst.\n\n# Two\n\nSecond.", splitter, nil, false)
	if err != nil {
		t.Fatalf("ChunkByHeadings() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}

	if _, err := ChunkByHeadings("# One", nil, nil, false); !errors.Is(err, ErrNoSplitter) {
		t.Errorf("expected ErrNoSplitter with nil splitter, got %v", err)
	}
}

func TestChunkByLevel3Headings(t *testing.T) {
	text := "intro line\n### First\nalpha\n### Second\nbeta\n"

	tests := []struct {
		name         string
		stripHeaders bool
		check        func([]string) bool
	}{
		{
			name: "headers kept",
			check: func(chunks []string) bool {
				return len(chunks) == 3 &&
					chunks[0] == "intro line" &&
					strings.HasPrefix(chunks[1], "### First") &&
					strings.HasPrefix(chunks[2], "### Second")
			},
		},
		{
			name:         "headers stripped",
			stripHeaders: true,
			check: func(chunks []string) bool {
				return len(chunks) == 3 &&
					chunks[1] == "alpha" &&
					chunks[2] == "beta"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkByLevel3Headings(text, tt.stripHeaders)
			if !tt.check(chunks) {
				t.Errorf("ChunkByLevel3Headings() = %q", chunks)
			}
		})
	}

	if got := ChunkByLevel3Headings("", false); got != nil {
		t.Errorf("expected nil for empty text, got %q", got)
	}

	// Lower-level headings must not split.
	chunks := ChunkByLevel3Headings("## Not a split\ncontent", false)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk for level-2 heading, got %d", len(chunks))
	}
}
