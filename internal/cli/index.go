package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
	"docrag/internal/xref"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index corpus documents for retrieval",
	Long: `Index the text files in the specified directory and build the
cross-reference graph. The index is stored in .docrag/index.db within the
target directory; the graph in .docrag/cross_references.json.

Examples:
  docrag index .                # Index current directory
  docrag index /path/to/corpus  # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	if err := config.EnsureDataDir(path); err != nil {
		return fmt.Errorf("failed to create .docrag directory: %w", err)
	}

	// Full rebuild: chunk ids are positional, so a stale database cannot
	// be patched in place.
	dbPath := config.IndexDBPath(path)
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	chk := chunker.NewTextChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	tokenizer := analyzer.NewTokenizer()

	ingester := usecase.NewIngester(st, walker, chk, tokenizer)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int, currentFile string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	result, err := ingester.Run(path, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	extractor, err := xref.NewRegexExtractor(cfg.Graph.RefPattern)
	if err != nil {
		fmt.Printf("Warning: %v; using default reference pattern\n", err)
		extractor, _ = xref.NewRegexExtractor("")
	}
	graph := xref.Build(result.Chunks, extractor)
	if err := xref.Save(graph, config.GraphPath(path)); err != nil {
		return fmt.Errorf("failed to save reference graph: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)
	fmt.Printf("  Graph:          %d documents, %d reference edges\n", graph.TotalNodes, graph.TotalEdges)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}
