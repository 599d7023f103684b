package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/retrieval"
)

var classifyQuery string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a query against the domain catalog",
	Long: `Classify a query against the domain catalog without running
retrieval, showing each matched domain with its score and documents.
Useful for tuning the catalog.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyQuery, "query", "q", "", "query text (required)")
	classifyCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	engine := retrieval.NewEngine(GetRootDir(), GetConfig())
	defer engine.Close()

	scores, err := engine.Classify(classifyQuery)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Println("No domain matched.")
		return nil
	}

	for i, s := range scores {
		fmt.Printf("%2d. %-20s %.2f\n", i+1, s.Name, s.Score)
		if len(s.PrimaryDocs) > 0 {
			fmt.Printf("    primary: %s\n", strings.Join(s.PrimaryDocs, ", "))
		}
		if len(s.RelatedDocs) > 0 {
			fmt.Printf("    related: %s\n", strings.Join(s.RelatedDocs, ", "))
		}
		if s.ExpertNote != "" {
			fmt.Printf("    note:    %s\n", s.ExpertNote)
		}
	}
	return nil
}
