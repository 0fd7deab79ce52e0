package mrapps

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/emptyOVO/textjobs/worker"
)

// TagFunc derives the value attached to every token of a unit. ok is false
// when the unit is not recognized; the returned tag is then empty.
type TagFunc func(unit worker.InputUnit) (tag string, ok bool)

// KeepFunc decides whether a token is emitted.
type KeepFunc func(token string) bool

// TokenMapper emits (token, tag) for every kept token of a line.
type TokenMapper struct {
	Tag  TagFunc
	Keep KeepFunc
}

func (m TokenMapper) Map(unit worker.InputUnit, line string) []worker.KV {
	tag, _ := m.Tag(unit)
	var out []worker.KV
	t := worker.NewTokenizer(line)
	for {
		tok, ok := t.Next()
		if !ok {
			return out
		}
		if m.Keep != nil && !m.Keep(tok) {
			continue
		}
		out = append(out, worker.KV{Key: tok, Value: tag})
	}
}

func (m TokenMapper) CheckUnit(unit worker.InputUnit) error {
	if _, ok := m.Tag(unit); !ok {
		return fmt.Errorf("unrecognized input unit %q", unit.Name)
	}
	return nil
}

// ConstTag attaches the same value to every token.
func ConstTag(v string) TagFunc {
	return func(worker.InputUnit) (string, bool) { return v, true }
}

// FileNameTag attaches the unit's base file name.
func FileNameTag(unit worker.InputUnit) (string, bool) {
	if unit.Name == "" {
		return "", false
	}
	return unit.Name, true
}

// Category maps units whose name contains Match to Tag.
type Category struct {
	Match string `json:"match"`
	Tag   string `json:"tag"`
}

// ParseCategory parses "match=tag".
func ParseCategory(s string) (Category, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return Category{}, fmt.Errorf("invalid category %q (expected match=tag)", s)
	}
	return Category{Match: strings.TrimSpace(parts[0]), Tag: strings.TrimSpace(parts[1])}, nil
}

// CategoryTag tags a unit with the first category whose Match it contains.
func CategoryTag(categories []Category) TagFunc {
	return func(unit worker.InputUnit) (string, bool) {
		for _, c := range categories {
			if strings.Contains(unit.Name, c.Match) {
				return c.Tag, true
			}
		}
		return "", false
	}
}

func NonEmpty(token string) bool {
	return token != ""
}

// MinLength keeps tokens of at least n characters, so "más" has length 3.
func MinLength(n int) KeepFunc {
	return func(token string) bool {
		return utf8.RuneCountInString(token) >= n
	}
}
