package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate per-chunk summaries for the summary index",
	Long: `Generate a short summary for every indexed chunk with the configured
chat model and build the secondary summary index. Chunks that already have
a summary are skipped, so an interrupted run can be resumed.`,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("environment variable %s is not set", cfg.LLM.APIKeyEnv)
	}

	st, err := store.NewBoltStore(config.IndexDBPath(dir))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	client := llm.NewOpenAIClient(apiKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	builder := usecase.NewSummaryBuilder(st, client, analyzer.NewTokenizer())

	var bar *progressbar.ProgressBar
	progress := func(processed, total int, _ string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Summarizing"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	result, err := builder.Run(context.Background(), progress)
	if err != nil {
		return fmt.Errorf("summary generation failed: %w", err)
	}

	fmt.Printf("\nSummaries generated: %d (skipped %d existing)\n", result.Generated, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf("%d chunk(s) failed:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
