package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/retrieval"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexed corpus statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	engine := retrieval.NewEngine(GetRootDir(), GetConfig())
	defer engine.Close()

	stats, err := engine.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Documents:        %d\n", stats.TotalDocs)
	fmt.Printf("Chunks:           %d\n", stats.TotalChunks)
	fmt.Printf("Avg chunk tokens: %.1f\n", stats.AvgChunkLen)

	docs, err := engine.Documents()
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		fmt.Println()
		for _, d := range docs {
			fmt.Printf("  %-24s %-32s %d chunks\n", d.DocID, d.Filename, d.ChunkCount)
		}
	}
	return nil
}
