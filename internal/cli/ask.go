package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuery    string
	askMood     string
	askEvidence bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask grandma a question from the terminal",
	Long: `Retrieve passages for the question and let grandma answer it.

Examples:
  grandma ask -q "할머니 뭐 하고 계세요?"
  grandma ask -q "오늘 힘들었어요" --mood sad --evidence`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().StringVar(&askMood, "mood", "", "asker's mood (default from config)")
	askCmd.Flags().BoolVar(&askEvidence, "evidence", false, "also print the supporting passages")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	mood := askMood
	if mood == "" {
		mood = cfg.Ingest.DefaultMood
	}

	ix, _, err := openIndex(cmd.Context(), cfg, GetRootDir(), nil)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer ix.Close()

	answers, err := buildAnswerService(cfg, ix)
	if err != nil {
		return err
	}

	answer, err := answers.Answer(cmd.Context(), askQuery, mood)
	if err != nil {
		return err
	}
	fmt.Println(answer.Text)

	if askEvidence {
		evidence, err := answers.Evidence(cmd.Context(), askQuery)
		if err != nil {
			return err
		}
		fmt.Println()
		for i, text := range evidence {
			fmt.Printf("[%d] %s\n", i+1, text)
		}
	}
	return nil
}
