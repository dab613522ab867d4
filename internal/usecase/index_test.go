package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/chunker"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/embedding"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/fs"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/memstore"
)

const grandmaCorpus = "할머니는 매주 일요일 아침에 사과파이를 구워 주신다.\n" +
	"할머니의 고향은 바닷가 마을이다.\n" +
	"할머니는 젊었을 때 초등학교 선생님이었다.\n" +
	"할머니는 비 오는 날이면 김치전을 부쳐 주신다.\n" +
	"할머니의 가장 좋아하는 꽃은 해바라기다."

type testIndex struct {
	uc       *IndexUseCase
	chunks   *memstore.MemoryStore
	vectors  *memstore.VectorIndex
	embedder *embedding.HashingEmbedder
	path     string
}

func newTestIndex(t *testing.T, text string, chunkSize, workers, batch int) *testIndex {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grandma.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	emb := embedding.NewHashingEmbedder(2048)
	ti := &testIndex{
		chunks:   memstore.NewMemoryStore(),
		vectors:  memstore.NewVectorIndex(2048),
		embedder: emb,
		path:     path,
	}
	ti.uc = NewIndexUseCase(
		fs.NewLoader(fs.NewWalker(nil, nil)),
		chunker.NewSeparatorChunker("\n", chunkSize, 0),
		emb,
		ti.chunks,
		ti.vectors,
		workers, batch,
	)
	return ti
}

func TestIndexBuild(t *testing.T) {
	ctx := context.Background()
	ti := newTestIndex(t, grandmaCorpus, 30, 3, 1)

	var (
		mu       sync.Mutex
		lastDone int
		calls    int
	)
	ti.uc.OnProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		assert.LessOrEqual(t, done, total)
		if done > lastDone {
			lastDone = done
		}
	})

	result, err := ti.uc.Build(ctx, ti.path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, 5, result.Chunks)
	assert.Greater(t, result.AvgChunkLen, 0.0)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, lastDone)

	count, err := ti.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, count)

	stats, err := ti.chunks.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalChunks)
	assert.Equal(t, 1, stats.TotalDocs)
}

func TestIndexVectorsMatchChunks(t *testing.T) {
	ctx := context.Background()
	ti := newTestIndex(t, grandmaCorpus, 30, 4, 1)

	_, err := ti.uc.Build(ctx, ti.path)
	require.NoError(t, err)

	docs, err := ti.chunks.ListDocs()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	chunks, err := ti.chunks.GetChunksByDoc(docs[0].ID)
	require.NoError(t, err)

	// Every chunk must be its own nearest neighbour, whatever order the
	// concurrent batches finished in.
	for _, c := range chunks {
		vecs, err := ti.embedder.Embed(ctx, []string{c.Text})
		require.NoError(t, err)
		results, err := ti.vectors.Search(ctx, vecs[0], 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, c.ID, results[0].ID)
		assert.True(t, strings.Contains(grandmaCorpus, c.Text))
	}
}

func TestIndexRebuildReplaces(t *testing.T) {
	ctx := context.Background()
	ti := newTestIndex(t, grandmaCorpus, 30, 2, 2)

	_, err := ti.uc.Build(ctx, ti.path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(ti.path, []byte("할머니는 노래를 좋아한다."), 0644))
	result, err := ti.uc.Build(ctx, ti.path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Chunks)

	count, err := ti.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexBlankCorpus(t *testing.T) {
	ti := newTestIndex(t, "\n  \n", 30, 1, 10)

	result, err := ti.uc.Build(context.Background(), ti.path)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Chunks)
}

func TestIndexUnreadableSource(t *testing.T) {
	ti := newTestIndex(t, grandmaCorpus, 30, 1, 10)

	_, err := ti.uc.Build(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIndexCancelled(t *testing.T) {
	ti := newTestIndex(t, grandmaCorpus, 30, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ti.uc.Build(ctx, ti.path)
	assert.Error(t, err)
}
