package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n"
)

// Chunk is one piece of a split document. Overlap is the number of leading
// characters copied from the tail of the previous chunk.
type Chunk struct {
	Text    string
	Overlap int
}

// CharacterSplitter splits text on a separator and greedily packs the
// segments into chunks of at most chunkSize characters.
type CharacterSplitter struct {
	chunkSize int
	overlap   int
	separator string
}

// TextSplitter is any splitter the ingestion pipeline can use.
type TextSplitter = textsplitter.TextSplitter

var _ TextSplitter = (*CharacterSplitter)(nil)

// SplitterOption configures a CharacterSplitter.
type SplitterOption func(*CharacterSplitter)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) SplitterOption {
	return func(s *CharacterSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how many trailing characters of a chunk are repeated
// at the start of the next one.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *CharacterSplitter) {
		s.overlap = overlap
	}
}

// WithSeparator sets the string the text is split on.
func WithSeparator(sep string) SplitterOption {
	return func(s *CharacterSplitter) {
		s.separator = sep
	}
}

// NewCharacterSplitter builds a splitter, rejecting configurations where the
// overlap would not leave room for new content.
func NewCharacterSplitter(opts ...SplitterOption) (*CharacterSplitter, error) {
	s := &CharacterSplitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		separator: DefaultSeparator,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.chunkSize <= 0:
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrSplitConfig, s.chunkSize)
	case s.overlap < 0:
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrSplitConfig, s.overlap)
	case s.overlap >= s.chunkSize:
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrSplitConfig, s.overlap, s.chunkSize)
	}
	return s, nil
}

// SplitText implements textsplitter.TextSplitter.
func (s *CharacterSplitter) SplitText(text string) ([]string, error) {
	chunks := s.Split(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out, nil
}

// Split returns the chunks of text in document order.
func (s *CharacterSplitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	segments := strings.Split(text, s.separator)
	sepLen := utf8.RuneCountInString(s.separator)

	var chunks []Chunk
	current := Chunk{Text: segments[0]}
	currentLen := utf8.RuneCountInString(segments[0])

	for _, seg := range segments[1:] {
		segLen := utf8.RuneCountInString(seg)
		if currentLen+sepLen+segLen <= s.chunkSize {
			current.Text += s.separator + seg
			currentLen += sepLen + segLen
			continue
		}

		chunks = append(chunks, current)

		carry := min(s.overlap, currentLen, s.chunkSize-sepLen-segLen)
		if carry <= 0 {
			current = Chunk{Text: seg}
			currentLen = segLen
			continue
		}
		current = Chunk{
			Text:    lastRunes(current.Text, carry) + s.separator + seg,
			Overlap: carry,
		}
		currentLen = carry + sepLen + segLen
	}

	return append(chunks, current)
}

// lastRunes returns the final n characters of s.
func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// NewRecursiveSplitter returns langchaingo's recursive character splitter
// configured with the same size and overlap, for documents without reliable
// line structure.
func NewRecursiveSplitter(chunkSize, overlap int) (TextSplitter, error) {
	if _, err := NewCharacterSplitter(WithChunkSize(chunkSize), WithChunkOverlap(overlap)); err != nil {
		return nil, err
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n", " ", ""}),
	), nil
}
