package expand

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) ModelName() string { return "fake" }

func TestSynonymsNoMatch(t *testing.T) {
	s := NewSynonyms(map[string][]string{"温度管理": {"熱制御"}})
	assert.Equal(t, []string{"構造設計"}, s.Expand("構造設計"))
}

func TestSynonymsSingleCombinedQuery(t *testing.T) {
	s := NewSynonyms(map[string][]string{
		"温度管理": {"熱制御", "熱設計"},
		"衛星":   {"宇宙機"},
	})
	got := s.Expand("衛星の温度管理について")
	require.Len(t, got, 2)
	assert.Equal(t, "衛星の温度管理について", got[0])
	assert.Contains(t, got[1], "熱制御")
	assert.Contains(t, got[1], "熱設計")
	assert.Contains(t, got[1], "宇宙機")
}

func TestLLMExpandParsesJSON(t *testing.T) {
	e := NewExpander(nil, &fakeLLM{response: `{"queries": ["熱制御 温度範囲", "熱設計 要件"]}`})
	got, err := e.LLMExpand(context.Background(), "衛星の温度管理")
	require.NoError(t, err)
	assert.Equal(t, []string{"衛星の温度管理", "熱制御 温度範囲", "熱設計 要件"}, got)
}

func TestLLMExpandToleratesCodeFence(t *testing.T) {
	e := NewExpander(nil, &fakeLLM{response: "```json\n{\"queries\": [\"熱制御\"]}\n```"})
	got, err := e.LLMExpand(context.Background(), "温度")
	require.NoError(t, err)
	assert.Equal(t, []string{"温度", "熱制御"}, got)
}

func TestLLMExpandFailureReturnsOriginal(t *testing.T) {
	e := NewExpander(nil, &fakeLLM{err: errors.New("timeout")})
	got, err := e.LLMExpand(context.Background(), "温度")
	assert.Error(t, err)
	assert.Equal(t, []string{"温度"}, got)
}

func TestLLMExpandMalformedResponse(t *testing.T) {
	e := NewExpander(nil, &fakeLLM{response: "ここに説明文"})
	got, err := e.LLMExpand(context.Background(), "温度")
	assert.Error(t, err)
	assert.Equal(t, []string{"温度"}, got)
}

func TestLLMExpandNoClient(t *testing.T) {
	e := NewExpander(nil, nil)
	got, err := e.LLMExpand(context.Background(), "温度")
	assert.Error(t, err)
	assert.Equal(t, []string{"温度"}, got)
}
