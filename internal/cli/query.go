package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/classify"
	"docrag/internal/domain"
	"docrag/internal/retrieval"
)

var (
	queryText   string
	queryTopK   int
	queryDocs   []string
	queryJSON   bool
	queryExpand bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the indexed corpus",
	Long: `Search the indexed corpus with hybrid retrieval. The query is
classified against the domain catalog to narrow the document set, then
run through every available backend and fused into one ranking.

Examples:
  docrag query -q "熱制御 温度範囲"
  docrag query -q "radiator design" --top-k 5 --json
  docrag query -q "電源系" --doc JERG-2-200`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringArrayVar(&queryDocs, "doc", nil, "restrict to document ids (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "emit JSON")
	queryCmd.Flags().BoolVar(&queryExpand, "llm-expand", false, "enable LLM query expansion for this query")
	queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if queryExpand {
		cfg.Retrieve.LLMExpansion = true
	}

	engine := retrieval.NewEngine(GetRootDir(), cfg)
	defer engine.Close()

	var filter domain.DocFilter
	if len(queryDocs) > 0 {
		filter = domain.DocFilter(queryDocs)
	}

	result, err := engine.Retrieve(context.Background(), queryText, queryTopK, filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printResultJSON(result)
	}
	printResult(result)
	return nil
}

func printResultJSON(result *retrieval.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RequestID     string               `json:"request_id"`
		Methods       []domain.Method      `json:"methods_used"`
		DocFilter     domain.DocFilter     `json:"doc_filter_applied,omitempty"`
		DomainMatches []domain.DomainScore `json:"domain_matches,omitempty"`
		Procedure     *classify.Procedure  `json:"procedure,omitempty"`
		Hits          []domain.FusedHit    `json:"hits"`
	}{
		RequestID:     result.RequestID,
		Methods:       result.MethodsUsed,
		DocFilter:     result.DocFilterApplied,
		DomainMatches: result.DomainMatches,
		Procedure:     result.Procedure,
		Hits:          result.Hits,
	})
}

func printResult(result *retrieval.Result) {
	if len(result.DomainMatches) > 0 {
		fmt.Printf("Domains: ")
		parts := make([]string, 0, len(result.DomainMatches))
		for _, d := range result.DomainMatches {
			parts = append(parts, fmt.Sprintf("%s (%.1f)", d.Name, d.Score))
		}
		fmt.Println(strings.Join(parts, ", "))
	}
	if len(result.DocFilterApplied) > 0 {
		fmt.Printf("Filter:  %s\n", strings.Join(result.DocFilterApplied, ", "))
	}
	if p := result.Procedure; p != nil {
		fmt.Printf("Procedure: %s", p.Key)
		if p.Description != "" {
			fmt.Printf(" (%s)", p.Description)
		}
		fmt.Println()
		for i, step := range p.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	}
	methods := make([]string, 0, len(result.MethodsUsed))
	for _, m := range result.MethodsUsed {
		methods = append(methods, string(m))
	}
	fmt.Printf("Methods: %s\n\n", strings.Join(methods, ", "))

	if len(result.Hits) == 0 {
		fmt.Println("No results.")
		return
	}

	for i, hit := range result.Hits {
		hitMethods := make([]string, 0, len(hit.Methods))
		for _, m := range hit.Methods {
			hitMethods = append(hitMethods, string(m))
		}
		fmt.Printf("%2d. [%s] %s  score=%.3f  via %s\n", i+1, hit.DocID, hit.ChunkID, hit.CombinedScore, strings.Join(hitMethods, "+"))
		fmt.Printf("    %s\n\n", excerpt(hit.Text, 160))
	}
}

// excerpt trims text to limit runes on a single line.
func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
