package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/config"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and the answering endpoints",
	Long: `Build the index, then serve:

  GET  /                    upload page
  POST /upload_audio        voice question -> transcript -> answer
  POST /rag                 {"query", "mood"} -> {"answer"}
  POST /rag_retrieve        {"query"} -> evidence passages
  GET  /healthz             index statistics

Examples:
  grandma serve
  grandma serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.ListenAddr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix, result, err := openIndex(ctx, cfg, GetRootDir(), nil)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	defer ix.Close()

	answers, err := buildAnswerService(cfg, ix)
	if err != nil {
		return err
	}
	ingest, err := buildIngest(cfg, GetRootDir(), answers)
	if err != nil {
		return err
	}

	srv := server.New(ingest, answers, ix.chunks, server.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		UIDir:          config.ResolvePath(GetRootDir(), cfg.Server.UIDir),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddr, err)
	}

	logger.Info("serving",
		"addr", ln.Addr().String(),
		"documents", result.Documents,
		"chunks", result.Chunks,
		"reused", result.Reused,
		"backend", cfg.Index.Backend)

	return srv.Serve(ctx, ln)
}
