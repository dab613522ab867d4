package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recording with the configured speech-to-text engine",
	Long: `Send a recording to the speech-to-text engine and print the transcript.

Examples:
  grandma transcribe uploads/audio1.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	transcript, err := buildTranscriber(GetConfig()).Transcribe(cmd.Context(), filepath.Base(args[0]), data)
	if err != nil {
		return err
	}
	fmt.Println(transcript.Text)
	return nil
}
