package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [corpus]",
	Short: "Build the vector index from the memory corpus",
	Long: `Split the corpus into passages, embed them and store the vectors.
The corpus defaults to corpus.path from the config; it may be a single
text file or a directory.

With index.backend=bolt the index is kept in index.db_path and reused by
"grandma serve" while the corpus and settings are unchanged. The memory
backend only lives for the duration of one command.

Examples:
  grandma index                  # Index corpus.path
  grandma index memories/        # Index a directory of notes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if len(args) > 0 {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		cfg.Corpus.Path = path
	}

	fmt.Printf("Indexing %s...\n", cfg.Corpus.Path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			remaining := total - done
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	ix, result, err := openIndex(cmd.Context(), cfg, GetRootDir(), progressCallback)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	defer ix.Close()

	if result.Reused {
		fmt.Printf("\nIndex is up to date:\n")
	} else {
		fmt.Printf("\nIndexing complete:\n")
	}
	fmt.Printf("  Documents:      %d\n", result.Documents)
	fmt.Printf("  Chunks:         %d\n", result.Chunks)
	fmt.Printf("  Avg chunk len:  %.1f runes\n", result.AvgChunkLen)
	fmt.Printf("  Embedder:       %s (%d dims)\n", ix.embedder.ModelName(), ix.embedder.Dimension())
	if !result.Reused {
		fmt.Printf("  Took:           %s\n", formatDuration(result.Duration))
	}

	switch cfg.Index.Backend {
	case "bolt":
		fmt.Printf("\nIndex stored at: %s\n", cfg.Index.DBPath)
	case "qdrant":
		fmt.Printf("\nVectors stored in qdrant collection %q\n", cfg.Index.QdrantCollection)
	default:
		fmt.Println("\nMemory backend: the index is rebuilt by every command.")
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
