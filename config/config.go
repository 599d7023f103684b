package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant's retrieval engine.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Graph     GraphConfig     `yaml:"graph"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// IndexConfig holds corpus ingestion configuration.
type IndexConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	K1           float64  `yaml:"k1"`
	B            float64  `yaml:"b"`
}

// RetrieveConfig holds retrieval and fusion configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	SynonymWeight   float64 `yaml:"synonym_weight"`
	VectorWeight    float64 `yaml:"vector_weight"`
	SummaryWeight   float64 `yaml:"summary_weight"`
	LLMExpandWeight float64 `yaml:"llm_expand_weight"`
	CrossRefWeight  float64 `yaml:"cross_ref_weight"`
	VectorThreshold float64 `yaml:"vector_threshold"`
	HopDepth        int     `yaml:"hop_depth"`
	CrossRefMaxDocs int     `yaml:"cross_ref_max_docs"`
	LLMExpansion    bool    `yaml:"llm_expansion"`
	// The keyword backend is mandatory and gets a stricter timeout;
	// optional backends get the longer one.
	KeywordTimeoutMS int `yaml:"keyword_timeout_ms"`
	BackendTimeoutMS int `yaml:"backend_timeout_ms"`
}

// KnowledgeConfig locates the domain catalog and dictionaries.
type KnowledgeConfig struct {
	Dir string `yaml:"dir"`
}

// GraphConfig holds cross-reference graph configuration.
type GraphConfig struct {
	// RefPattern overrides the document-reference syntax. Empty selects
	// the built-in default.
	RefPattern string `yaml:"ref_pattern"`
}

// LLMConfig holds the chat-model provider settings for query expansion
// and summarization.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:     []string{"**/*.txt", "**/*.md"},
			Excludes:     []string{"**/.docrag/**", "**/.git/**"},
			ChunkSize:    800,
			ChunkOverlap: 100,
			K1:           1.2,
			B:            0.75,
		},
		Retrieve: RetrieveConfig{
			TopK:             10,
			KeywordWeight:    1.0,
			SynonymWeight:    0.8,
			VectorWeight:     0.9,
			SummaryWeight:    0.7,
			LLMExpandWeight:  0.6,
			CrossRefWeight:   0.5,
			VectorThreshold:  0.25,
			HopDepth:         1,
			CrossRefMaxDocs:  5,
			LLMExpansion:     false,
			KeywordTimeoutMS: 2000,
			BackendTimeoutMS: 15000,
		},
		Knowledge: KnowledgeConfig{
			Dir: "knowledge",
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Embedding: EmbeddingConfig{
			Enabled:   false,
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 64,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// docrag.yaml, then .docrag/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".docrag", "index.db")
}

// GraphPath returns the path to the persisted cross-reference graph.
func GraphPath(dir string) string {
	return filepath.Join(dir, ".docrag", "cross_references.json")
}

// DomainMapPath returns the path to the domain catalog.
func (c *Config) DomainMapPath(dir string) string {
	return filepath.Join(dir, c.Knowledge.Dir, "domain_map.yaml")
}

// GlossaryPath returns the path to the glossary.
func (c *Config) GlossaryPath(dir string) string {
	return filepath.Join(dir, c.Knowledge.Dir, "glossary.yaml")
}

// SynonymsPath returns the path to the synonym dictionary.
func (c *Config) SynonymsPath(dir string) string {
	return filepath.Join(dir, c.Knowledge.Dir, "synonyms.yaml")
}

// DecisionTreesPath returns the path to the procedure trigger rules.
func (c *Config) DecisionTreesPath(dir string) string {
	return filepath.Join(dir, c.Knowledge.Dir, "decision_trees.yaml")
}

// EnsureDataDir ensures the .docrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docrag"), 0755)
}
