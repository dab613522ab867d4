package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/config"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "grandma",
	Short: "My AI Grandma - voice questions answered from grandma's memories",
	Long: `grandma records a spoken question, transcribes it, and answers in
grandma's voice using passages retrieved from a local memory corpus.

Example usage:
  grandma serve                        # Upload page, /upload_audio and /rag
  grandma index                        # Build the vector index from the corpus
  grandma retrieve -q "좋아하는 음식"   # Show the passages a question retrieves
  grandma ask -q "뭐 하고 계세요?"      # Answer a question from the terminal
  grandma transcribe audio1.wav        # Transcribe a recording`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadDotEnv(rootDir); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./grandma.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
