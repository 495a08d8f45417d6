package agent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Call is a function call found in a model reply
type Call struct {
	Name string
	Args string
}

// ParseCall finds the first NAME(args) call in text.
//
// The name is the run of word characters directly before the first "(" that
// follows a word character. The arguments end at the matching ")", skipping
// parentheses inside '...', "..." and """...""" strings. When the parentheses
// never balance, the arguments run to the last ")" in text. No ")" after the
// opening parenthesis means there is no call.
func ParseCall(text string) (Call, bool) {
	open := -1
	for i := 1; i < len(text); i++ {
		if text[i] != '(' {
			continue
		}
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		if isWord(r) {
			open = i
			break
		}
	}
	if open < 0 {
		return Call{}, false
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !isWord(r) {
			break
		}
		start -= size
	}

	rest := text[open+1:]
	end, ok := matchingParen(rest)
	if !ok {
		end = strings.LastIndexByte(rest, ')')
		if end < 0 {
			return Call{}, false
		}
	}

	return Call{Name: text[start:open], Args: rest[:end]}, true
}

// matchingParen returns the index in s of the ")" closing an already-open "("
func matchingParen(s string) (int, bool) {
	depth := 1
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `"""`):
			j := strings.Index(s[i+3:], `"""`)
			if j < 0 {
				return 0, false
			}
			i += 3 + j + 3
			continue
		case s[i] == '"' || s[i] == '\'':
			j := closingQuote(s[i+1:], s[i])
			if j < 0 {
				return 0, false
			}
			i += 1 + j + 1
			continue
		case s[i] == '(':
			depth++
		case s[i] == ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// closingQuote returns the index of the unescaped quote q in s
func closingQuote(s string, q byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i
		case '\n':
			// strings do not span lines
			return -1
		}
	}
	return -1
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
