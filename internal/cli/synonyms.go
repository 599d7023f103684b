package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/expand"
)

var synonymsCmd = &cobra.Command{
	Use:   "synonyms",
	Short: "Manage the synonym dictionary",
}

var synonymsAddCmd = &cobra.Command{
	Use:   "add TERM SYNONYM...",
	Short: "Add synonyms for a term",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSynonymsAdd,
}

var synonymsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the synonym dictionary",
	RunE:  runSynonymsList,
}

func init() {
	synonymsCmd.AddCommand(synonymsAddCmd)
	synonymsCmd.AddCommand(synonymsListCmd)
	rootCmd.AddCommand(synonymsCmd)
}

func runSynonymsAdd(cmd *cobra.Command, args []string) error {
	path := GetConfig().SynonymsPath(GetRootDir())

	dict, err := expand.LoadSynonyms(path)
	if err != nil {
		return err
	}
	dict.Add(args[0], args[1:]...)
	if err := dict.Save(path); err != nil {
		return fmt.Errorf("failed to save synonyms: %w", err)
	}

	fmt.Printf("Added %d synonym(s) for %s\n", len(args)-1, args[0])
	return nil
}

func runSynonymsList(cmd *cobra.Command, args []string) error {
	path := GetConfig().SynonymsPath(GetRootDir())

	dict, err := expand.LoadSynonyms(path)
	if err != nil {
		return err
	}
	terms := dict.Terms()
	if len(terms) == 0 {
		fmt.Println("Synonym dictionary is empty.")
		return nil
	}
	for _, term := range terms {
		fmt.Printf("%s: %s\n", term, strings.Join(dict.Lookup(term), ", "))
	}
	return nil
}
