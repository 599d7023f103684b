package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate chunk embeddings for vector search",
	Long: `Embed every indexed chunk with the configured embedding provider and
store the vectors for the vector backend. Chunks that already have a
vector are skipped.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()

	embedder, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	st, err := store.NewBoltStore(config.IndexDBPath(dir))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	builder := usecase.NewVectorBuilder(st, embedder, cfg.Embedding.BatchSize)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int, _ string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	result, err := builder.Run(context.Background(), progress)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Printf("\nVectors generated: %d (skipped %d existing)\n", result.Generated, result.Skipped)
	return nil
}
