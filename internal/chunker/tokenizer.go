package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts text to model tokens and back
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	tok *tiktoken.Tiktoken
}

// NewTiktoken loads a tiktoken encoding such as "cl100k_base".
// The encoder is loaded once and reused across splits.
func NewTiktoken(encoding string) (Tokenizer, error) {
	tok, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %q: %w", encoding, err)
	}
	return &tiktokenTokenizer{tok: tok}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.tok.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.tok.Decode(tokens)
}
