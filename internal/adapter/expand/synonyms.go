package expand

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Synonyms is the term dictionary used for query expansion, loaded from
// synonyms.yaml. Not safe for concurrent mutation; the engine treats a
// loaded dictionary as read-only.
type Synonyms struct {
	terms map[string][]string
}

type synonymsFile struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadSynonyms reads the dictionary. A missing file yields an empty
// dictionary; a malformed file is an error.
func LoadSynonyms(path string) (*Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Synonyms{terms: map[string][]string{}}, nil
		}
		return nil, err
	}

	var file synonymsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file %s: %w", path, err)
	}
	if file.Synonyms == nil {
		file.Synonyms = map[string][]string{}
	}
	return &Synonyms{terms: file.Synonyms}, nil
}

func NewSynonyms(terms map[string][]string) *Synonyms {
	if terms == nil {
		terms = map[string][]string{}
	}
	return &Synonyms{terms: terms}
}

// Add registers synonyms for term, skipping duplicates and the term
// itself.
func (s *Synonyms) Add(term string, synonyms ...string) {
	if term == "" {
		return
	}
	existing := make(map[string]struct{}, len(s.terms[term]))
	for _, syn := range s.terms[term] {
		existing[syn] = struct{}{}
	}
	for _, syn := range synonyms {
		if syn == "" || syn == term {
			continue
		}
		if _, dup := existing[syn]; dup {
			continue
		}
		existing[syn] = struct{}{}
		s.terms[term] = append(s.terms[term], syn)
	}
}

// Terms returns the dictionary's terms, sorted.
func (s *Synonyms) Terms() []string {
	terms := make([]string, 0, len(s.terms))
	for term := range s.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Lookup returns the synonyms registered for term.
func (s *Synonyms) Lookup(term string) []string {
	return s.terms[term]
}

// Save writes the dictionary back to path in the load format.
func (s *Synonyms) Save(path string) error {
	data, err := yaml.Marshal(synonymsFile{Synonyms: s.terms})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Expand returns the original query plus, when any dictionary term occurs
// in it, one additional query with all matching synonyms appended.
func (s *Synonyms) Expand(query string) []string {
	var matched []string
	seen := make(map[string]struct{})

	terms := make([]string, 0, len(s.terms))
	for term := range s.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		if term == "" || !strings.Contains(query, term) {
			continue
		}
		for _, syn := range s.terms[term] {
			if _, dup := seen[syn]; dup {
				continue
			}
			seen[syn] = struct{}{}
			matched = append(matched, syn)
		}
	}

	if len(matched) == 0 {
		return []string{query}
	}

	expanded := query
	for _, syn := range matched {
		expanded += " " + syn
	}
	return []string{query, expanded}
}
