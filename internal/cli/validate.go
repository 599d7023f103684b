package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
	"docrag/internal/xref"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check index and graph consistency",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()

	st, err := store.NewBoltStoreReadOnly(config.IndexDBPath(dir))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	var graph *xref.Graph
	if g, err := xref.Load(config.GraphPath(dir)); err == nil {
		graph = g
	} else if !os.IsNotExist(err) {
		return err
	}

	report, err := usecase.NewValidator(st, graph).Run()
	if err != nil {
		return err
	}

	fmt.Printf("Documents: %d\n", report.Documents)
	fmt.Printf("Chunks:    %d\n", report.Chunks)
	fmt.Printf("Summaries: %d\n", report.Summaries)
	fmt.Printf("Vectors:   %d\n", report.Vectors)

	if report.OK() {
		fmt.Println("\nIndex is consistent.")
		return nil
	}

	fmt.Printf("\n%d problem(s) found:\n", len(report.Problems))
	for _, p := range report.Problems {
		fmt.Printf("  - %s\n", p)
	}
	return fmt.Errorf("validation failed")
}
