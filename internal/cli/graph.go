package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/xref"
)

var (
	graphHubs  int
	graphDoc   string
	graphDepth int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the cross-reference graph",
	Long: `Inspect the document cross-reference graph built at indexing time.

Examples:
  docrag graph                      # Graph totals
  docrag graph --hubs 10            # Most referenced documents
  docrag graph --doc JERG-2-310     # Neighbors of one document`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().IntVar(&graphHubs, "hubs", 0, "show the N most referenced documents")
	graphCmd.Flags().StringVar(&graphDoc, "doc", "", "show neighbors of a document")
	graphCmd.Flags().IntVar(&graphDepth, "depth", 1, "neighbor traversal depth")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	path := config.GraphPath(GetRootDir())
	graph, err := xref.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no reference graph at %s (run `docrag index` first)", path)
		}
		return err
	}

	fmt.Printf("Documents: %d, reference edges: %d\n", graph.TotalNodes, graph.TotalEdges)

	if graphDoc != "" {
		node, ok := graph.Nodes[graphDoc]
		if !ok {
			return fmt.Errorf("unknown document: %s", graphDoc)
		}
		fmt.Printf("\n%s  (cites %d, cited by %d)\n", node.DocID, node.OutDegree, node.InDegree)
		if len(node.OutRefs) > 0 {
			fmt.Printf("  cites:    %s\n", strings.Join(node.OutRefs, ", "))
		}
		if len(node.InRefs) > 0 {
			fmt.Printf("  cited by: %s\n", strings.Join(node.InRefs, ", "))
		}
		neighbors := graph.Neighbors(graphDoc, xref.DirectionBoth, graphDepth)
		if len(neighbors) > 0 {
			fmt.Printf("  within %d hop(s): %s\n", graphDepth, strings.Join(neighbors, ", "))
		}
	}

	if graphHubs > 0 {
		fmt.Printf("\nMost referenced documents:\n")
		for i, node := range graph.Hubs(graphHubs) {
			fmt.Printf("%2d. %-24s cited by %d\n", i+1, node.DocID, node.InDegree)
		}
	}

	return nil
}
