// Package chunk splits source files into overlapping chunks for embedding.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/codeindex/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 2500
	// DefaultChunkOverlap is how many characters adjacent chunks share.
	DefaultChunkOverlap = 300
)

// Chunker splits one file's content into chunks. Implementations must be
// deterministic: the same input always yields the same chunks.
type Chunker interface {
	Split(path, content string) ([]core.Chunk, error)
}

// Splitter is a Chunker built on langchaingo's recursive character splitter.
type Splitter struct {
	size     int
	overlap  int
	splitter textsplitter.TextSplitter
}

var _ Chunker = (*Splitter)(nil)

// Option configures a Splitter.
type Option func(*Splitter) error

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(n int) Option {
	return func(s *Splitter) error {
		if n < 1 {
			return &core.ConfigurationError{Field: "chunk_size", Reason: fmt.Sprintf("must be positive, got %d", n)}
		}
		s.size = n
		return nil
	}
}

// WithChunkOverlap sets how many characters adjacent chunks share.
func WithChunkOverlap(n int) Option {
	return func(s *Splitter) error {
		if n < 0 {
			return &core.ConfigurationError{Field: "chunk_overlap", Reason: fmt.Sprintf("must not be negative, got %d", n)}
		}
		s.overlap = n
		return nil
	}
}

// NewSplitter creates a Splitter.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.overlap >= s.size {
		return nil, &core.ConfigurationError{
			Field:  "chunk_overlap",
			Reason: fmt.Sprintf("%d must be smaller than chunk size %d", s.overlap, s.size),
		}
	}
	s.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.size),
		textsplitter.WithChunkOverlap(s.overlap),
	)
	return s, nil
}

// Split returns the chunks of content in order. Whitespace-only content has
// no chunks.
func (s *Splitter) Split(path, content string) ([]core.Chunk, error) {
	if path == "" {
		return nil, core.ErrEmptyPath
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	texts, err := s.splitter.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", path, err)
	}

	lines := newLineIndex(content)
	language := LanguageForPath(path)
	chunks := make([]core.Chunk, 0, len(texts))
	cursor := 0
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		start := locate(content, text, cursor)
		end := min(start+len(text), len(content))
		chunks = append(chunks, core.Chunk{
			Path:      path,
			Index:     len(chunks),
			Text:      text,
			StartByte: start,
			EndByte:   end,
			StartLine: lines.lineOf(start),
			EndLine:   lines.lineOf(max(end-1, start)),
			Language:  language,
		})
		cursor = start + 1
	}
	return chunks, nil
}

// locate finds text in content at or after from. Chunks are emitted in
// order, so the search never moves backwards. When the splitter has
// rewritten whitespace and the text no longer appears verbatim, the first
// line is used as an anchor.
func locate(content, text string, from int) int {
	from = min(from, len(content))
	if i := strings.Index(content[from:], text); i >= 0 {
		return from + i
	}
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if first != "" {
		if i := strings.Index(content[from:], first); i >= 0 {
			return from + i
		}
	}
	return from
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(content string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) lineOf(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}
