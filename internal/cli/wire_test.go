package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/config"
)

const testCorpus = "할머니는 매주 일요일 아침에 사과파이를 구워 주신다.\n" +
	"할머니의 고향은 바닷가 마을이다.\n" +
	"할머니는 젊었을 때 초등학교 선생님이었다."

func testConfig(t *testing.T, backend string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grandma.txt"), []byte(testCorpus), 0644))

	c := config.DefaultConfig()
	c.Corpus.Path = "grandma.txt"
	c.Index.Backend = backend
	c.Index.ChunkSize = 30
	c.Index.ChunkOverlap = 0
	c.Embedding.Dimension = 2048
	return c, dir
}

func TestOpenIndexMemory(t *testing.T) {
	c, dir := testConfig(t, "memory")

	var calls int
	ix, result, err := openIndex(context.Background(), c, dir, func(done, total int) { calls++ })
	require.NoError(t, err)
	defer ix.Close()

	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, 3, result.Chunks)
	assert.False(t, result.Reused)
	assert.Positive(t, calls)

	chunks, err := buildRetrieve(c, ix, false).Retrieve(context.Background(), "할머니가 일요일에 뭘 만드나요?", 2)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.Contains(chunks[0].Chunk.Text, "사과파이"), "top chunk: %q", chunks[0].Chunk.Text)
}

func TestOpenIndexBoltReuse(t *testing.T) {
	c, dir := testConfig(t, "bolt")
	ctx := context.Background()

	ix, first, err := openIndex(ctx, c, dir, nil)
	require.NoError(t, err)
	require.NoError(t, ix.Close())
	assert.False(t, first.Reused)
	assert.FileExists(t, filepath.Join(dir, c.Index.DBPath))

	ix, second, err := openIndex(ctx, c, dir, nil)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Chunks, second.Chunks)

	chunks, err := buildRetrieve(c, ix, false).Retrieve(ctx, "할머니의 고향", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.NoError(t, ix.Close())

	// A corpus edit invalidates the stored index.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grandma.txt"), []byte(testCorpus+"\n할머니는 해바라기를 좋아한다."), 0644))
	ix, third, err := openIndex(ctx, c, dir, nil)
	require.NoError(t, err)
	defer ix.Close()
	assert.False(t, third.Reused)
	assert.Equal(t, 4, third.Chunks)
}

func TestOpenIndexMissingCorpus(t *testing.T) {
	c, dir := testConfig(t, "memory")
	c.Corpus.Path = "missing.txt"

	_, _, err := openIndex(context.Background(), c, dir, nil)
	assert.Error(t, err)
}

func TestBuildIngestForwarding(t *testing.T) {
	c, dir := testConfig(t, "memory")
	c.Ingest.RAGURL = "http://localhost:5000/rag"

	ingest, err := buildIngest(c, dir, nil)
	require.NoError(t, err)
	assert.NotNil(t, ingest)
	assert.DirExists(t, filepath.Join(dir, c.Ingest.UploadDir))
}

func TestBuildGeneratorRequiresKey(t *testing.T) {
	c := config.DefaultConfig()
	c.Generation.APIKeyEnv = "GRANDMA_TEST_UNSET_KEY"
	t.Setenv("GRANDMA_TEST_UNSET_KEY", "")

	_, err := buildGenerator(c)
	assert.Error(t, err)

	c.Generation.Provider = "ollama"
	gen, err := buildGenerator(c)
	require.NoError(t, err)
	assert.NotEmpty(t, gen.ModelName())
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{125 * time.Second, "2m5s"},
		{3*time.Hour + 4*time.Minute, "3h4m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatDuration(tc.d))
	}
}
