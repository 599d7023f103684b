package xref

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docrag/internal/domain"
)

// Save writes the graph as a flat JSON document so it only needs
// rebuilding when the corpus changes.
func Save(g *Graph, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a previously saved graph. The result is immutable for the
// process lifetime; a corpus change requires an explicit rebuild.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: cross-reference graph %s: %v", domain.ErrConfiguration, path, err)
	}
	if g.Nodes == nil {
		g.Nodes = map[string]*Node{}
	}
	return &g, nil
}
