package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.KeywordWeight != 1.0 {
		t.Errorf("KeywordWeight = %v, want 1.0", cfg.Retrieve.KeywordWeight)
	}
	if cfg.Index.ChunkSize != 800 || cfg.Index.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d, want 800/100", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	content := `retrieve:
  top_k: 5
  vector_threshold: 0.4
index:
  chunk_size: 400
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.VectorThreshold != 0.4 {
		t.Errorf("VectorThreshold = %v, want 0.4", cfg.Retrieve.VectorThreshold)
	}
	if cfg.Index.ChunkSize != 400 {
		t.Errorf("ChunkSize = %d, want 400", cfg.Index.ChunkSize)
	}
	// untouched sections keep defaults
	if cfg.Retrieve.CrossRefMaxDocs != 5 {
		t.Errorf("CrossRefMaxDocs = %d, want 5", cfg.Retrieve.CrossRefMaxDocs)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	if err := os.WriteFile(path, []byte("retrieve: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docrag.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("TopK = %d, want 7", loaded.Retrieve.TopK)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if got := IndexDBPath("/corpus"); got != "/corpus/.docrag/index.db" {
		t.Errorf("IndexDBPath = %s", got)
	}
	if got := GraphPath("/corpus"); got != "/corpus/.docrag/cross_references.json" {
		t.Errorf("GraphPath = %s", got)
	}
	if got := cfg.DomainMapPath("/corpus"); got != "/corpus/knowledge/domain_map.yaml" {
		t.Errorf("DomainMapPath = %s", got)
	}
	if got := cfg.DecisionTreesPath("/corpus"); got != "/corpus/knowledge/decision_trees.yaml" {
		t.Errorf("DecisionTreesPath = %s", got)
	}
}
