package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

// ProgressFunc is called after each embedded batch with the number of
// chunks embedded so far.
type ProgressFunc func(done, total int)

// IndexUseCase builds the vector index from the corpus.
type IndexUseCase struct {
	loader      port.CorpusLoader
	chunker     port.Chunker
	embedder    port.Embedder
	chunkStore  port.ChunkStore
	vectorStore port.VectorStore
	workers     int
	batchSize   int
	progress    ProgressFunc
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	loader port.CorpusLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	chunkStore port.ChunkStore,
	vectorStore port.VectorStore,
	workers, batchSize int,
) *IndexUseCase {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &IndexUseCase{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		chunkStore:  chunkStore,
		vectorStore: vectorStore,
		workers:     workers,
		batchSize:   batchSize,
	}
}

// OnProgress registers a progress callback.
func (u *IndexUseCase) OnProgress(fn ProgressFunc) {
	u.progress = fn
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Documents   int
	Chunks      int
	AvgChunkLen float64
	Duration    time.Duration
	Reused      bool
}

// Load reads the corpus documents from source.
func (u *IndexUseCase) Load(source string) ([]domain.Document, error) {
	docs, err := u.loader.Load(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return docs, nil
}

// Build loads the corpus from source and indexes it into empty stores.
func (u *IndexUseCase) Build(ctx context.Context, source string) (*IndexResult, error) {
	docs, err := u.Load(source)
	if err != nil {
		return nil, err
	}
	return u.Index(ctx, docs)
}

// Index clears both stores, then splits, embeds and inserts every
// document. There is no incremental path.
func (u *IndexUseCase) Index(ctx context.Context, docs []domain.Document) (*IndexResult, error) {
	start := time.Now()

	if err := u.chunkStore.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear chunk store: %w", err)
	}
	if err := u.vectorStore.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear vector store: %w", err)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.Path, err)
		}
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		logger.Warn("corpus produced no chunks", "documents", len(docs))
	}

	vectors, err := u.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	items := make([]port.VectorItem, len(chunks))
	for i, chunk := range chunks {
		items[i] = port.VectorItem{
			ID:     chunk.ID,
			Vector: vectors[i],
			Metadata: map[string]string{
				"doc_id": chunk.DocID,
			},
		}
	}

	for _, doc := range docs {
		if err := u.chunkStore.PutDoc(doc); err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
	}
	if err := u.chunkStore.PutChunks(chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	for i := 0; i < len(items); i += u.batchSize {
		end := min(i+u.batchSize, len(items))
		if err := u.vectorStore.Upsert(ctx, items[i:end]); err != nil {
			return nil, fmt.Errorf("failed to store vectors: %w", err)
		}
	}

	totalLen := 0
	for _, chunk := range chunks {
		totalLen += utf8.RuneCountInString(chunk.Text)
	}
	avg := 0.0
	if len(chunks) > 0 {
		avg = float64(totalLen) / float64(len(chunks))
	}

	stats := domain.Stats{
		TotalDocs:   len(docs),
		TotalChunks: len(chunks),
		AvgChunkLen: avg,
	}
	if err := u.chunkStore.UpdateStats(stats); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	result := &IndexResult{
		Documents:   len(docs),
		Chunks:      len(chunks),
		AvgChunkLen: avg,
		Duration:    time.Since(start),
	}
	logger.Info("index built",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"embedder", u.embedder.ModelName(),
		"duration", result.Duration)
	return result, nil
}

// embedAll embeds chunk texts in batches, at most u.workers batches in
// flight. vectors[i] belongs to chunks[i].
func (u *IndexUseCase) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	if len(chunks) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)

	var (
		mu   sync.Mutex
		done int
	)
	dim := u.embedder.Dimension()

	for start := 0; start < len(chunks); start += u.batchSize {
		start := start
		end := min(start+u.batchSize, len(chunks))

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Text
			}

			vecs, err := u.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			for i, v := range vecs {
				if len(v) != dim {
					return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dim, len(v))
				}
				vectors[start+i] = v
			}

			mu.Lock()
			defer mu.Unlock()
			done += len(texts)
			if u.progress != nil {
				u.progress(done, len(chunks))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
