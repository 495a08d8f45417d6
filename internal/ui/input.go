package ui

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// Input reads user lines from a stream
type Input struct {
	scanner *bufio.Scanner
}

// NewInput creates a line reader over r
func NewInput(r io.Reader) *Input {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Input{scanner: scanner}
}

// ReadLine returns the next line with surrounding whitespace trimmed.
// io.EOF is returned once the stream is exhausted.
func (in *Input) ReadLine() (string, error) {
	if !in.scanner.Scan() {
		if err := in.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(in.scanner.Text()), nil
}

// IsExitCommand reports whether line asks to leave the program
func IsExitCommand(line string) bool {
	switch strings.ToLower(line) {
	case "/exit", "/quit":
		return true
	}
	return false
}
