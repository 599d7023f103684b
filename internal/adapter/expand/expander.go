package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docrag/internal/port"
)

const llmExpandSystemPrompt = `あなたは技術文書・標準文書の検索を支援するエキスパートです。

ユーザーの検索クエリを受け取り、同じ意味だが異なる表現の検索クエリを生成してください。
公式文書では日常語と異なる専門用語が使われます。その言い換えを生成してください。

例:
- 「衛星の温度管理」→ ["熱制御 温度範囲", "熱設計 宇宙機 温度要件", "熱収支 放熱 断熱"]

必ず以下のJSON形式で、3〜5個のクエリを返してください（JSONのみ、説明文なし）:
{"queries": ["クエリ1", "クエリ2", "クエリ3"]}`

// Expander implements query expansion over a synonym dictionary and,
// when an LLM client is supplied, model-generated rephrasings.
type Expander struct {
	synonyms *Synonyms
	llm      port.LLM
}

func NewExpander(synonyms *Synonyms, llm port.LLM) *Expander {
	if synonyms == nil {
		synonyms = NewSynonyms(nil)
	}
	return &Expander{synonyms: synonyms, llm: llm}
}

func (e *Expander) Synonyms(query string) []string {
	return e.synonyms.Expand(query)
}

// LLMExpand asks the model for alternate phrasings. The original query is
// always element 0. Any failure (no client, transport error, malformed
// response) returns just the original along with the error so the caller
// can skip the method.
func (e *Expander) LLMExpand(ctx context.Context, query string) ([]string, error) {
	if e.llm == nil {
		return []string{query}, fmt.Errorf("no llm client configured")
	}

	response, err := e.llm.GenerateWithSystem(ctx, llmExpandSystemPrompt, query)
	if err != nil {
		return []string{query}, err
	}

	queries, err := parseExpandResponse(response)
	if err != nil {
		return []string{query}, err
	}

	result := []string{query}
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || q == query {
			continue
		}
		dup := false
		for _, existing := range result {
			if existing == q {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, q)
		}
	}
	if len(result) > 5 {
		result = result[:5]
	}
	return result, nil
}

// parseExpandResponse extracts the queries array, tolerating a ```json
// fence around the payload.
func parseExpandResponse(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			content = strings.TrimSpace(rest[:end])
		} else {
			content = strings.TrimSpace(rest)
		}
	}

	var payload struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("malformed expansion response: %w", err)
	}
	return payload.Queries, nil
}
