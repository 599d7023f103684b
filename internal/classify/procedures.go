package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
)

// Procedure is a step-by-step workflow matched against the query, from
// decision_trees.yaml.
type Procedure struct {
	Key         string   `json:"tree"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

type procedureRule struct {
	key         string
	description string
	steps       []string
	patterns    []*regexp.Regexp
}

// ProcedureSet holds the trigger rules in declaration order; the first
// rule whose trigger matches wins.
type ProcedureSet struct {
	rules []procedureRule
}

type procedureEntry struct {
	Description     string   `yaml:"description"`
	TriggerPatterns []string `yaml:"trigger_patterns"`
	Steps           []string `yaml:"steps"`
}

// LoadProcedures reads decision_trees.yaml. A missing file yields an
// empty set.
func LoadProcedures(path string) (*ProcedureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProcedureSet{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	set, err := ParseProcedures(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return set, nil
}

// ParseProcedures decodes the trees mapping in declaration order. A
// trigger pattern that fails to compile is dropped; the tree's remaining
// triggers still apply.
func ParseProcedures(data []byte) (*ProcedureSet, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	treesNode := mappingValue(&root, "trees")
	if treesNode == nil {
		return &ProcedureSet{}, nil
	}
	if treesNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("'trees' is not a mapping")
	}

	set := &ProcedureSet{}
	for i := 0; i+1 < len(treesNode.Content); i += 2 {
		keyNode := treesNode.Content[i]
		valNode := treesNode.Content[i+1]

		var entry procedureEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("tree %q: %w", keyNode.Value, err)
		}

		rule := procedureRule{
			key:         keyNode.Value,
			description: entry.Description,
			steps:       entry.Steps,
		}
		for _, pattern := range entry.TriggerPatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			rule.patterns = append(rule.patterns, re)
		}
		set.rules = append(set.rules, rule)
	}
	return set, nil
}

// Match returns the first procedure whose trigger matches the query, or
// nil when none does.
func (s *ProcedureSet) Match(query string) *Procedure {
	if s == nil {
		return nil
	}
	for _, rule := range s.rules {
		for _, re := range rule.patterns {
			if re.MatchString(query) {
				return &Procedure{
					Key:         rule.key,
					Description: rule.description,
					Steps:       rule.steps,
				}
			}
		}
	}
	return nil
}

// Len reports the number of loaded trees.
func (s *ProcedureSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}
