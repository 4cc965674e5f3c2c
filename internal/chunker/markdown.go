package chunker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DefaultHeaderLevels are the heading levels that start a new section when
// none are configured: #, ## and ###.
var DefaultHeaderLevels = []int{1, 2, 3}

// Section is one markdown section: everything from a tracked heading up to
// the next tracked heading or end of document.
type Section struct {
	// Heading is the heading text without the leading hashes. Empty for
	// content appearing before the first heading.
	Heading string
	// Text is the section content, trimmed. Includes the heading line unless
	// the splitter was asked to strip headers.
	Text string
}

// HeaderSplitter partitions markdown text into sections at heading
// boundaries for a set of heading levels.
type HeaderSplitter interface {
	Split(text string, levels []int, stripHeaders bool) []Section
}

// ErrNoSplitter is returned by ChunkByHeadings when no HeaderSplitter was
// supplied. Callers needing a dependency-free path should use
// ChunkByLevel3Headings instead.
var ErrNoSplitter = errors.New("chunker: no header splitter configured")

// ChunkByHeadings splits text into section chunks using the given splitter.
// Empty sections are dropped. Fails fast when s is nil rather than silently
// falling back to another strategy.
func ChunkByHeadings(txt string, s HeaderSplitter, levels []int, stripHeaders bool) ([]string, error) {
	if s == nil {
		return nil, ErrNoSplitter
	}
	if len(levels) == 0 {
		levels = DefaultHeaderLevels
	}

	var chunks []string
	for _, sec := range s.Split(txt, levels, stripHeaders) {
		if sec.Text != "" {
			chunks = append(chunks, sec.Text)
		}
	}
	return chunks, nil
}

// GoldmarkSplitter implements HeaderSplitter by walking the goldmark AST.
// Construct it once and reuse it; the parser is stateless across calls.
type GoldmarkSplitter struct {
	parser goldmark.Markdown
}

// NewGoldmarkSplitter creates a goldmark-backed header splitter.
func NewGoldmarkSplitter() *GoldmarkSplitter {
	return &GoldmarkSplitter{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Split partitions txt into sections at headings of the tracked levels.
// Headings of untracked levels contribute their text to the enclosing
// section. Content before the first tracked heading becomes a section with
// an empty Heading.
func (s *GoldmarkSplitter) Split(txt string, levels []int, stripHeaders bool) []Section {
	if txt == "" {
		return nil
	}
	if len(levels) == 0 {
		levels = DefaultHeaderLevels
	}
	tracked := make(map[int]struct{}, len(levels))
	for _, l := range levels {
		tracked[l] = struct{}{}
	}

	source := []byte(txt)
	doc := s.parser.Parser().Parse(text.NewReader(source))

	var sections []Section
	var heading string
	var buf strings.Builder

	flush := func() {
		if content := strings.TrimSpace(buf.String()); content != "" {
			sections = append(sections, Section{Heading: heading, Text: content})
		}
		buf.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := extractText(node, source)
			if _, ok := tracked[node.Level]; ok {
				flush()
				heading = headingText
				if !stripHeaders {
					buf.WriteString(strings.Repeat("#", node.Level))
					buf.WriteString(" ")
					buf.WriteString(headingText)
					buf.WriteString("\n")
				}
			} else {
				// Untracked heading: plain text within the current section.
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(headingText)
				buf.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
				buf.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			return ast.WalkContinue, nil

		case *ast.String:
			buf.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.FencedCodeBlock:
			writeCodeLines(&buf, node.Lines(), source)
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock:
			writeCodeLines(&buf, node.Lines(), source)
			return ast.WalkSkipChildren, nil

		default:
			return ast.WalkContinue, nil
		}
	})

	flush()
	return sections
}

func writeCodeLines(buf *strings.Builder, lines *text.Segments, source []byte) {
	if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteString("\n")
	}
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}

// extractText collects the plain text of a node and its children.
func extractText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// level3Header matches a level-3 markdown heading line.
var level3Header = regexp.MustCompile(`^###\s+(.+)$`)

// ChunkByLevel3Headings splits markdown into sections at "###" headings
// using a pure line scan, with no parser dependency. A new chunk starts at
// every level-3 heading line; the heading line is omitted when stripHeaders
// is true. Trimmed-empty chunks are dropped.
func ChunkByLevel3Headings(txt string, stripHeaders bool) []string {
	if txt == "" {
		return nil
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if chunk := strings.TrimSpace(buf.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(txt, "\n") {
		if level3Header.MatchString(line) {
			flush()
			if stripHeaders {
				continue
			}
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return chunks
}
