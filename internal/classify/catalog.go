package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
)

// GlossaryEntry maps an informal term to the formal vocabulary used by
// the corpus, optionally naming the domain the term belongs to.
type GlossaryEntry struct {
	Term   string
	Domain string
	Formal []string
}

// Catalog is the domain map plus glossary, loaded once per process.
// Declaration order in the YAML files is preserved because it breaks
// classification ties.
type Catalog struct {
	Domains  []domain.Domain
	Glossary []GlossaryEntry
}

type domainEntry struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Specificity int      `yaml:"specificity"`
	PrimaryDocs []string `yaml:"primary_docs"`
	RelatedDocs []string `yaml:"related_docs"`
	ExpertNote  string   `yaml:"expert_note"`
}

type glossaryEntry struct {
	Domain string   `yaml:"domain"`
	Formal []string `yaml:"formal"`
}

// LoadCatalog reads domain_map.yaml and glossary.yaml. The domain map is
// required; a missing glossary is treated as empty.
func LoadCatalog(domainMapPath, glossaryPath string) (*Catalog, error) {
	domains, err := loadDomainMap(domainMapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	glossary, err := loadGlossary(glossaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &Catalog{Domains: domains, Glossary: glossary}, nil
}

func loadDomainMap(path string) ([]domain.Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDomainMap(data)
}

// ParseDomainMap decodes the domains mapping while preserving the order
// of the keys as written in the file.
func ParseDomainMap(data []byte) ([]domain.Domain, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	domainsNode := mappingValue(&root, "domains")
	if domainsNode == nil {
		return nil, fmt.Errorf("domain map has no 'domains' key")
	}
	if domainsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("'domains' is not a mapping")
	}

	var domains []domain.Domain
	for i := 0; i+1 < len(domainsNode.Content); i += 2 {
		keyNode := domainsNode.Content[i]
		valNode := domainsNode.Content[i+1]

		var entry domainEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("domain %q: %w", keyNode.Value, err)
		}
		if entry.Specificity == 0 {
			entry.Specificity = 3
		}
		name := entry.Name
		if name == "" {
			name = keyNode.Value
		}
		domains = append(domains, domain.Domain{
			Key:         keyNode.Value,
			Name:        name,
			Keywords:    entry.Keywords,
			Specificity: entry.Specificity,
			PrimaryDocs: entry.PrimaryDocs,
			RelatedDocs: entry.RelatedDocs,
			ExpertNote:  entry.ExpertNote,
		})
	}
	return domains, nil
}

func loadGlossary(path string) ([]GlossaryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return ParseGlossary(data)
}

// ParseGlossary decodes the terms mapping in declaration order.
func ParseGlossary(data []byte) ([]GlossaryEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	termsNode := mappingValue(&root, "terms")
	if termsNode == nil {
		return nil, nil
	}
	if termsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("'terms' is not a mapping")
	}

	var entries []GlossaryEntry
	for i := 0; i+1 < len(termsNode.Content); i += 2 {
		keyNode := termsNode.Content[i]
		valNode := termsNode.Content[i+1]

		var entry glossaryEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("glossary term %q: %w", keyNode.Value, err)
		}
		entries = append(entries, GlossaryEntry{
			Term:   keyNode.Value,
			Domain: entry.Domain,
			Formal: entry.Formal,
		})
	}
	return entries, nil
}

// mappingValue returns the value node for key at the document's top level.
func mappingValue(root *yaml.Node, key string) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == key {
			return doc.Content[i+1]
		}
	}
	return nil
}
