package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.VectorStore = (*QdrantVectorStore)(nil)

// chunkNamespace derives stable Qdrant point UUIDs from chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c3b2e-8d4a-4c1e-9b7f-2a5d0e3c4b18")

const payloadChunkID = "chunk_id"

// QdrantVectorStore keeps vectors in a remote Qdrant collection using
// cosine distance. Chunk text stays in the local ChunkStore.
type QdrantVectorStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

func NewQdrantVectorStore(host string, port int, collection string, dimension int) (*QdrantVectorStore, error) {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantVectorStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}, nil
}

func (s *QdrantVectorStore) Close() error {
	return s.client.Close()
}

// Clear drops and recreates the collection.
func (s *QdrantVectorStore) Clear(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *QdrantVectorStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	pts := make([]*qdrant.PointStruct, len(items))
	for i, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
		}
		payload := map[string]any{payloadChunkID: item.ID}
		for k, v := range item.Metadata {
			payload[k] = v
		}
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(item.ID)),
			Vectors: qdrant.NewVectors(item.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         pts,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (s *QdrantVectorStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(query...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	results := make([]port.VectorResult, 0, len(resp))
	for _, r := range resp {
		md := make(map[string]string, len(r.Payload))
		for key, v := range r.Payload {
			md[key] = v.GetStringValue()
		}
		id := md[payloadChunkID]
		delete(md, payloadChunkID)
		results = append(results, port.VectorResult{
			ID:       id,
			Score:    float64(r.Score),
			Metadata: md,
		})
	}
	return results, nil
}

func (s *QdrantVectorStore) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int(n), nil
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String()
}
