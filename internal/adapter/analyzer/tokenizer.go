package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer segments mixed Japanese/Latin text without a morphological
// dictionary. Latin and digit runs become lowercased word tokens; runs of
// CJK characters are emitted as character bigrams so that query and index
// segmentations always agree. Single-character ASCII tokens are dropped.
type Tokenizer struct{}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into index terms.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var latin []rune
	var cjk []rune

	flushLatin := func() {
		if len(latin) >= 2 {
			tokens = append(tokens, strings.ToLower(string(latin)))
		}
		latin = latin[:0]
	}
	flushCJK := func() {
		tokens = append(tokens, cjkTokens(cjk)...)
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushLatin()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	return tokens
}

// cjkTokens emits overlapping bigrams for a CJK run. A run of length 1 is
// kept as-is: single non-ASCII characters carry meaning on their own.
func cjkTokens(run []rune) []string {
	switch len(run) {
	case 0:
		return nil
	case 1:
		return []string{string(run)}
	}
	out := make([]string, 0, len(run)-1)
	for i := 0; i+1 < len(run); i++ {
		out = append(out, string(run[i:i+2]))
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
