package usecase

import (
	"context"
	"fmt"

	"docrag/internal/port"
)

const summaryPrompt = `以下は宇宙機開発標準文書の一部です。検索用の要約を2〜3文で作成してください。
要約には文書の主題、対象となる設計分野、重要な専門用語を含めてください。要約のみを返してください。

%s`

// SummaryBuilder generates a short per-chunk summary with the chat model
// and writes it to the secondary summary index. Summaries are built out
// of band; retrieval treats the summary index as optional.
type SummaryBuilder struct {
	store     port.IndexStore
	llm       port.LLM
	tokenizer port.Tokenizer
}

func NewSummaryBuilder(store port.IndexStore, llm port.LLM, tokenizer port.Tokenizer) *SummaryBuilder {
	return &SummaryBuilder{
		store:     store,
		llm:       llm,
		tokenizer: tokenizer,
	}
}

// SummaryResult summarizes one build run.
type SummaryResult struct {
	Generated int
	Skipped   int
	Errors    []string
}

// Run summarizes every chunk that does not have a summary yet, so an
// interrupted run resumes where it stopped.
func (u *SummaryBuilder) Run(ctx context.Context, progress ProgressFunc) (*SummaryResult, error) {
	chunks, err := u.store.ListChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	result := &SummaryResult{}
	for i, chunk := range chunks {
		if progress != nil {
			progress(i, len(chunks), chunk.ID)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if existing, err := u.store.GetSummary(chunk.ID); err == nil && existing != "" {
			result.Skipped++
			continue
		}

		summary, err := u.llm.Generate(ctx, fmt.Sprintf(summaryPrompt, chunk.Text))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", chunk.ID, err))
			continue
		}

		tokens := u.tokenizer.Tokenize(summary)
		if err := u.store.PutSummary(chunk.ID, summary, tokens); err != nil {
			return result, fmt.Errorf("failed to store summary for %s: %w", chunk.ID, err)
		}
		result.Generated++
	}
	if progress != nil {
		progress(len(chunks), len(chunks), "")
	}

	return result, nil
}
