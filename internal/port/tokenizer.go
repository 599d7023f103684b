package port

// Tokenizer segments text for keyword indexing and search. Single-character
// ASCII tokens are filtered out; word segmentation for Japanese text is
// approximated without a morphological dictionary.
type Tokenizer interface {
	Tokenize(text string) []string
}
