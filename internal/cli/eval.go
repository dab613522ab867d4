package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/usecase"
)

var (
	evalCases string
	evalTopK  int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure retrieval quality against a set of known questions",
	Long: `Run every question in a cases file through retrieval and report how
often the expected passage is found.

The cases file is YAML:

  - query: "할머니가 일요일에 뭘 만드나요?"
    expect: "사과파이"
  - query: "할머니 고향이 어디예요?"
    expect: "바닷가"

A case is a hit when a retrieved chunk contains the expect text.

Examples:
  grandma eval --cases eval.yaml
  grandma eval --cases eval.yaml -k 3`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalCases, "cases", "", "YAML file of query/expect pairs (required)")
	evalCmd.Flags().IntVarP(&evalTopK, "top-k", "k", 0, "results per query (default from config)")
	evalCmd.MarkFlagRequired("cases")
}

type evalCase struct {
	Query  string `yaml:"query"`
	Expect string `yaml:"expect"`
}

type evalOutcome struct {
	Case     evalCase
	Rank     int // 1-based, 0 = miss
	TopScore float64
}

type evalReport struct {
	Outcomes []evalOutcome
	HitRate  float64
	MRR      float64
	AvgTop1  float64
}

func loadEvalCases(path string) ([]evalCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}
	var cases []evalCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Query) == "" || c.Expect == "" {
			return nil, fmt.Errorf("case %d: query and expect are required", i+1)
		}
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%s has no cases", path)
	}
	return cases, nil
}

func evaluate(ctx context.Context, retrieve *usecase.RetrieveUseCase, cases []evalCase, topK int) (*evalReport, error) {
	report := &evalReport{Outcomes: make([]evalOutcome, 0, len(cases))}

	var hits int
	var rrSum, top1Sum float64
	for _, c := range cases {
		chunks, err := retrieve.Retrieve(ctx, c.Query, topK)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", c.Query, err)
		}

		outcome := evalOutcome{Case: c}
		if len(chunks) > 0 {
			outcome.TopScore = chunks[0].Score
		}
		for i, sc := range chunks {
			if strings.Contains(sc.Chunk.Text, c.Expect) {
				outcome.Rank = i + 1
				break
			}
		}

		if outcome.Rank > 0 {
			hits++
			rrSum += 1 / float64(outcome.Rank)
		}
		top1Sum += outcome.TopScore
		report.Outcomes = append(report.Outcomes, outcome)
	}

	n := float64(len(cases))
	report.HitRate = float64(hits) / n
	report.MRR = rrSum / n
	report.AvgTop1 = top1Sum / n
	return report, nil
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	cases, err := loadEvalCases(evalCases)
	if err != nil {
		return err
	}

	topK := evalTopK
	if topK <= 0 {
		topK = cfg.Retrieve.TopK
	}

	ix, _, err := openIndex(cmd.Context(), cfg, GetRootDir(), nil)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer ix.Close()

	report, err := evaluate(cmd.Context(), buildRetrieve(cfg, ix, true), cases, topK)
	if err != nil {
		return err
	}

	fmt.Println("RETRIEVAL EVAL")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Embedder: %s (%d dims), top-k: %d\n\n", ix.embedder.ModelName(), ix.embedder.Dimension(), topK)
	for _, o := range report.Outcomes {
		status := "MISS"
		if o.Rank > 0 {
			status = fmt.Sprintf("HIT@%d", o.Rank)
		}
		fmt.Printf("[%-6s %.3f] %s\n", status, o.TopScore, o.Case.Query)
	}
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  Hit rate:           %.2f\n", report.HitRate)
	fmt.Printf("  MRR:                %.3f\n", report.MRR)
	fmt.Printf("  Avg top-1 score:    %.3f\n", report.AvgTop1)
	return nil
}
