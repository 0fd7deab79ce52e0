package worker

import "strings"

// Tokenizer walks a line lazily, yielding lower-cased tokens split on
// space, tab, newline, carriage return and form feed.
type Tokenizer struct {
	line string
	pos  int
}

func NewTokenizer(line string) *Tokenizer {
	return &Tokenizer{line: line}
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// Next returns the next token, or false once the line is exhausted.
func (t *Tokenizer) Next() (string, bool) {
	for t.pos < len(t.line) && isDelim(t.line[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.line) {
		return "", false
	}
	start := t.pos
	for t.pos < len(t.line) && !isDelim(t.line[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.line[start:t.pos]), true
}

// Reset rewinds the tokenizer to the start of the line.
func (t *Tokenizer) Reset() {
	t.pos = 0
}

func Tokenize(line string) []string {
	var out []string
	t := NewTokenizer(line)
	for {
		tok, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}
