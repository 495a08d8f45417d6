package chunker

import (
	"sync"
)

// TiktokenSplitter is a Splitter whose tiktoken encoding is loaded on the
// first Split. Loading may download the encoding file, so nothing touches the
// network until a page actually needs chunking.
type TiktokenSplitter struct {
	encoding  string
	maxTokens int

	once     sync.Once
	splitter *Splitter
	err      error
}

// NewTiktokenSplitter creates a lazily loaded splitter for the named encoding
func NewTiktokenSplitter(encoding string, maxTokens int) *TiktokenSplitter {
	return &TiktokenSplitter{encoding: encoding, maxTokens: maxTokens}
}

// Split loads the encoding if needed and splits text.
// A failed load is remembered and returned on every call.
func (t *TiktokenSplitter) Split(text string) ([]string, error) {
	t.once.Do(func() {
		tok, err := NewTiktoken(t.encoding)
		if err != nil {
			t.err = err
			return
		}
		t.splitter = NewSplitter(tok, t.maxTokens)
	})
	if t.err != nil {
		return nil, t.err
	}
	return t.splitter.Split(text), nil
}
