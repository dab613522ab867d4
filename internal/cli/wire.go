package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/config"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/analyzer"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/audio"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/chunker"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/embedding"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/fs"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/llm"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/memstore"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/ragclient"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/retriever"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/store"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/stt"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/usecase"
)

// index is an opened vector index together with the chunk store and
// embedder it was built with.
type index struct {
	chunks   port.ChunkStore
	vectors  port.VectorStore
	embedder port.Embedder
	closers  []func() error
}

func (x *index) Close() error {
	var errs []error
	for i := len(x.closers) - 1; i >= 0; i-- {
		errs = append(errs, x.closers[i]())
	}
	return errors.Join(errs...)
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "hashing":
		return embedding.NewHashingEmbedder(e.Dimension), nil
	case "openai":
		key := config.ResolveAPIKey(e.APIKeyEnv)
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(key, e.Model, e.BaseURL, e.Dimension, e.BatchSize), nil
		}
		return embedding.NewOpenAIEmbedder(key, e.Model, e.Dimension, e.BatchSize)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension, e.BatchSize), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func buildGenerator(cfg *config.Config) (port.Generator, error) {
	g := cfg.Generation
	key := config.ResolveAPIKey(g.APIKeyEnv)
	switch g.Provider {
	case "gemini":
		return llm.NewGeminiGenerator(key, g.Model, g.BaseURL)
	case "openai":
		if g.BaseURL != "" {
			return llm.NewOpenAICompatibleGenerator(key, g.Model, g.BaseURL), nil
		}
		return llm.NewOpenAIGenerator(key, g.Model)
	case "ollama":
		return llm.NewOllamaGenerator(g.Model, g.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", g.Provider)
	}
}

func buildTranscriber(cfg *config.Config) *stt.WhisperClient {
	t := cfg.Transcription
	key := config.ResolveAPIKey(t.APIKeyEnv)
	if key == "" {
		logger.Warn("transcription key not set, uploads will fail", "env", t.APIKeyEnv)
	}
	return stt.NewWhisperClient(key, t.Model, t.BaseURL, t.Timeout)
}

// openIndex loads the corpus and returns a ready index. The bolt backend
// reuses a stored index whose fingerprint matches the corpus and settings;
// every other case builds from scratch.
func openIndex(ctx context.Context, cfg *config.Config, root string, progress usecase.ProgressFunc) (*index, *usecase.IndexResult, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	loader := fs.NewLoader(fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes))
	source := config.ResolvePath(root, cfg.Corpus.Path)
	docs, err := loader.Load(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	ix := &index{embedder: embedder}
	var hash string
	var bolt *store.BoltStore

	switch cfg.Index.Backend {
	case "bolt":
		dbPath := config.ResolvePath(root, cfg.Index.DBPath)
		if err := config.EnsureDir(dbPath); err != nil {
			return nil, nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		bolt, err = store.NewBoltStore(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open index store: %w", err)
		}
		ix.closers = append(ix.closers, bolt.Close)
		ix.chunks = bolt

		hash = store.ComputeConfigHash(cfg, docs)
		migration, err := bolt.CheckMigration(hash)
		if err != nil {
			ix.Close()
			return nil, nil, fmt.Errorf("failed to check index: %w", err)
		}

		if !migration.NeedsRebuild {
			vs, err := store.NewBoltVectorStore(bolt.DB(), embedder.Dimension())
			if err != nil {
				ix.Close()
				return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
			}
			ix.vectors = vs
			stats, err := bolt.GetStats()
			if err != nil {
				ix.Close()
				return nil, nil, fmt.Errorf("failed to read index stats: %w", err)
			}
			logger.Info("reusing index", "path", dbPath, "chunks", stats.TotalChunks)
			return ix, &usecase.IndexResult{
				Documents:   stats.TotalDocs,
				Chunks:      stats.TotalChunks,
				AvgChunkLen: stats.AvgChunkLen,
				Reused:      true,
			}, nil
		}

		logger.Info("rebuilding index", "path", dbPath, "reason", migration.Reason)
		if err := bolt.Clear(); err != nil {
			ix.Close()
			return nil, nil, fmt.Errorf("failed to clear index: %w", err)
		}
		vs, err := store.NewBoltVectorStore(bolt.DB(), embedder.Dimension())
		if err != nil {
			ix.Close()
			return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		ix.vectors = vs

	case "qdrant":
		vs, err := store.NewQdrantVectorStore(cfg.Index.QdrantHost, cfg.Index.QdrantPort, cfg.Index.QdrantCollection, embedder.Dimension())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		ix.closers = append(ix.closers, vs.Close)
		ix.chunks = memstore.NewMemoryStore()
		ix.vectors = vs

	default:
		ix.chunks = memstore.NewMemoryStore()
		ix.vectors = memstore.NewVectorIndex(embedder.Dimension())
	}

	indexUC := usecase.NewIndexUseCase(
		loader,
		chunker.NewSeparatorChunker(cfg.Index.Separator, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		embedder,
		ix.chunks,
		ix.vectors,
		cfg.Index.Workers,
		cfg.Embedding.BatchSize,
	)
	if progress != nil {
		indexUC.OnProgress(progress)
	}

	result, err := indexUC.Index(ctx, docs)
	if err != nil {
		ix.Close()
		return nil, nil, err
	}

	if bolt != nil {
		if err := bolt.MarkBuilt(hash); err != nil {
			ix.Close()
			return nil, nil, fmt.Errorf("failed to record index build: %w", err)
		}
	}
	return ix, result, nil
}

func buildRetrieve(cfg *config.Config, ix *index, mmr bool) *usecase.RetrieveUseCase {
	var reranker usecase.Reranker
	if mmr && cfg.Retrieve.MMRLambda > 0 {
		reranker = retriever.NewMMRReranker(analyzer.NewTokenizer(2, 3), cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard)
	}
	return usecase.NewRetrieveUseCase(
		retriever.NewSemanticRetriever(ix.vectors, ix.embedder, ix.chunks),
		reranker,
		cfg.Retrieve.MinScoreThreshold,
	)
}

func buildAnswerService(cfg *config.Config, ix *index) (*usecase.AnswerService, error) {
	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	composer := usecase.NewComposer(gen, usecase.ComposeOptions{
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		MaxRetries:  cfg.Generation.MaxRetries,
		Timeout:     cfg.Generation.Timeout,
	})
	return usecase.NewAnswerService(buildRetrieve(cfg, ix, true), composer, cfg.Retrieve.TopK, cfg.Retrieve.EvidenceK), nil
}

// buildIngest wires the voice pipeline. With ingest.rag_url set, answers
// come from a separate answering service instead of local.
func buildIngest(cfg *config.Config, root string, local port.Answerer) (*usecase.IngestUseCase, error) {
	audioStore, err := audio.NewFileStore(
		config.ResolvePath(root, cfg.Ingest.UploadDir),
		cfg.Ingest.Extension,
		cfg.Ingest.MaxAllocAttempts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload directory: %w", err)
	}

	answerer := local
	if cfg.Ingest.RAGURL != "" {
		answerer = ragclient.New(cfg.Ingest.RAGURL, cfg.Generation.Timeout)
		logger.Info("forwarding transcripts", "url", cfg.Ingest.RAGURL)
	}

	return usecase.NewIngestUseCase(audioStore, buildTranscriber(cfg), answerer, cfg.Ingest.DefaultMood), nil
}
