package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/usecase"
)

var (
	retrieveQuery string
	retrieveTopK  int
	retrieveJSON  bool
	retrieveNoMMR bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Show the passages a question retrieves",
	Long: `Search the memory corpus and print the best matching passages.

Examples:
  grandma retrieve -q "할머니가 좋아하는 음식"
  grandma retrieve -q "고향" -k 8 --json`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "search query (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of results (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveNoMMR, "no-mmr", false, "disable MMR reranking")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := retrieveTopK
	if topK <= 0 {
		topK = cfg.Retrieve.TopK
	}

	ix, _, err := openIndex(cmd.Context(), cfg, GetRootDir(), nil)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer ix.Close()

	chunks, err := buildRetrieve(cfg, ix, !retrieveNoMMR).Retrieve(cmd.Context(), retrieveQuery, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToResults(chunks)

	if retrieveJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), retrieveQuery)
	for i, r := range results {
		fmt.Printf("--- [%d] %s#%d [%d:%d] (score: %.3f) ---\n", i+1, r.DocID, r.Index, r.Start, r.End, r.Score)
		text := []rune(r.Text)
		if len(text) > 300 {
			text = append(text[:300], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
	return nil
}
