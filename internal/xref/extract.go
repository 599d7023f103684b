package xref

import (
	"fmt"
	"regexp"
)

// DefaultRefPattern matches the document-number syntax used by the
// corpus, including extended variants like JERG-0-039-TM001.
const DefaultRefPattern = `JERG-\d{1,2}-\d{3}(?:-[A-Z]+\d+[A-Z]?)?`

// ReferenceExtractor finds document-reference strings in chunk text. The
// matching syntax is isolated here so it can evolve without touching
// graph construction.
type ReferenceExtractor interface {
	ExtractReferences(text string) []string
}

// RegexExtractor extracts references with a single compiled pattern.
type RegexExtractor struct {
	re *regexp.Regexp
}

// NewRegexExtractor compiles pattern. An empty pattern selects the
// default syntax; a pattern that fails to compile is rejected so the
// caller can fall back rather than crash.
func NewRegexExtractor(pattern string) (*RegexExtractor, error) {
	if pattern == "" {
		pattern = DefaultRefPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("malformed reference pattern %q: %w", pattern, err)
	}
	return &RegexExtractor{re: re}, nil
}

func (e *RegexExtractor) ExtractReferences(text string) []string {
	return e.re.FindAllString(text, -1)
}
