package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDomainMap = `domains:
  thermal:
    name: 熱制御
    specificity: 5
    keywords: ["熱制御", "放熱", "ヒータ"]
    primary_docs: ["JERG-2-310"]
    related_docs: ["JERG-2-200"]
    expert_note: 熱制御系の設計はJERG-2-310を参照。
  systems:
    name: システムズエンジニアリング
    keywords: ["システム", "開発"]
    primary_docs: ["JERG-0-049"]
`

const sampleGlossary = `terms:
  温度管理:
    domain: thermal
    formal: ["熱制御", "熱設計"]
  サーマル:
    formal: ["熱制御"]
`

func TestParseDomainMapPreservesOrderAndDefaults(t *testing.T) {
	domains, err := ParseDomainMap([]byte(sampleDomainMap))
	require.NoError(t, err)
	require.Len(t, domains, 2)

	assert.Equal(t, "thermal", domains[0].Key)
	assert.Equal(t, "熱制御", domains[0].Name)
	assert.Equal(t, 5, domains[0].Specificity)
	assert.Equal(t, []string{"JERG-2-310"}, domains[0].PrimaryDocs)

	assert.Equal(t, "systems", domains[1].Key)
	// Missing specificity defaults to 3.
	assert.Equal(t, 3, domains[1].Specificity)
}

func TestParseDomainMapMissingKey(t *testing.T) {
	_, err := ParseDomainMap([]byte("other: {}\n"))
	assert.Error(t, err)
}

func TestParseGlossary(t *testing.T) {
	entries, err := ParseGlossary([]byte(sampleGlossary))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "温度管理", entries[0].Term)
	assert.Equal(t, "thermal", entries[0].Domain)
	assert.Equal(t, []string{"熱制御", "熱設計"}, entries[0].Formal)

	assert.Equal(t, "サーマル", entries[1].Term)
	assert.Empty(t, entries[1].Domain)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	domainPath := filepath.Join(dir, "domain_map.yaml")
	glossaryPath := filepath.Join(dir, "glossary.yaml")
	require.NoError(t, os.WriteFile(domainPath, []byte(sampleDomainMap), 0644))
	require.NoError(t, os.WriteFile(glossaryPath, []byte(sampleGlossary), 0644))

	catalog, err := LoadCatalog(domainPath, glossaryPath)
	require.NoError(t, err)
	assert.Len(t, catalog.Domains, 2)
	assert.Len(t, catalog.Glossary, 2)
}

func TestLoadCatalogMissingDomainMap(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadCatalog(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "glossary.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalogMissingGlossaryIsEmpty(t *testing.T) {
	dir := t.TempDir()
	domainPath := filepath.Join(dir, "domain_map.yaml")
	require.NoError(t, os.WriteFile(domainPath, []byte(sampleDomainMap), 0644))

	catalog, err := LoadCatalog(domainPath, filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, catalog.Glossary)
}
