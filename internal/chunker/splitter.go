package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTokens is the chunk size used for page summaries
const DefaultMaxTokens = 200

// separators are tried in order once a markdown block is still too large
var separators = []string{"\n\n", "\n", " "}

// Splitter breaks text into chunks of at most maxTokens tokens with no overlap
type Splitter struct {
	tok       Tokenizer
	maxTokens int
}

// NewSplitter creates a splitter; maxTokens <= 0 selects DefaultMaxTokens
func NewSplitter(tok Tokenizer, maxTokens int) *Splitter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Splitter{tok: tok, maxTokens: maxTokens}
}

// Split returns the chunks of text in source order.
// Text that already fits is returned unchanged as a single chunk.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.count(text) <= s.maxTokens {
		return []string{text}
	}

	var pieces []string
	for _, block := range markdownBlocks(text) {
		pieces = append(pieces, s.splitOversized(block, separators)...)
	}

	return s.merge(pieces)
}

func (s *Splitter) count(text string) int {
	return len(s.tok.Encode(text))
}

// splitOversized breaks text on the first separator that applies,
// falling back to raw token windows when no separator is left.
func (s *Splitter) splitOversized(text string, seps []string) []string {
	if s.count(text) <= s.maxTokens {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.tokenWindows(text)
	}

	parts := splitAfter(text, seps[0])
	if len(parts) == 1 {
		return s.splitOversized(text, seps[1:])
	}

	var out []string
	for _, part := range parts {
		out = append(out, s.splitOversized(part, seps[1:])...)
	}
	return out
}

// tokenWindows cuts text into windows of at most maxTokens tokens.
// Byte-level encodings can split a character across tokens, so a window never
// ends inside a character: it is shortened, or lengthened when a single
// character needs more tokens than the window holds.
func (s *Splitter) tokenWindows(text string) []string {
	tokens := s.tok.Encode(text)
	var out []string
	for i := 0; i < len(tokens); {
		end := min(i+s.maxTokens, len(tokens))
		window := s.tok.Decode(tokens[i:end])
		for end-i > 1 && !utf8.ValidString(window) {
			end--
			window = s.tok.Decode(tokens[i:end])
		}
		for end < len(tokens) && !utf8.ValidString(window) {
			end++
			window = s.tok.Decode(tokens[i:end])
		}
		out = append(out, window)
		i = end
	}
	return out
}

// merge packs adjacent pieces greedily while the result still fits
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current string

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current = ""
	}

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if s.count(current+piece) <= s.maxTokens {
			current += piece
			continue
		}
		flush()
		current = piece
	}
	flush()

	return chunks
}

// splitAfter splits text after every occurrence of sep, keeping sep on the left part
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
