package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/adapter/memstore"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var (
	bucketVectors = []byte("vectors")
)

var _ port.VectorStore = (*BoltVectorStore)(nil)

// BoltVectorStore implements VectorStore using BoltDB for persistence.
// Every vector is mirrored into an in-memory index that serves searches.
type BoltVectorStore struct {
	db    *bbolt.DB
	cache *memstore.VectorIndex
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore creates a new BoltDB-backed vector store and loads
// any persisted vectors.
func NewBoltVectorStore(db *bbolt.DB, dimension int) (*BoltVectorStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}

	store := &BoltVectorStore{
		db:    db,
		cache: memstore.NewVectorIndex(dimension),
	}

	if err := store.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return store, nil
}

// loadVectors loads all vectors from BoltDB into memory. A stored vector
// of the wrong dimension means the index was built by another embedder.
func (s *BoltVectorStore) loadVectors() error {
	var items []port.VectorItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt vector %s: %w", k, err)
			}
			items = append(items, port.VectorItem{
				ID:       string(k),
				Vector:   stored.Vector,
				Metadata: stored.Metadata,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}
	return s.cache.Upsert(context.Background(), items)
}

// Upsert adds or updates vectors in the store.
func (s *BoltVectorStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	for _, item := range items {
		if len(item.Vector) != s.cache.Dimension() {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.cache.Dimension(), len(item.Vector))
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			data, err := json.Marshal(storedVector{Vector: item.Vector, Metadata: item.Metadata})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.cache.Upsert(ctx, items)
}

// Search finds the k nearest vectors to the query using cosine similarity.
func (s *BoltVectorStore) Search(ctx context.Context, query []float32, k int) ([]port.VectorResult, error) {
	return s.cache.Search(ctx, query, k)
}

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count(ctx context.Context) (int, error) {
	return s.cache.Count(ctx)
}

// Clear drops every persisted vector.
func (s *BoltVectorStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketVectors)
		return err
	})
	if err != nil {
		return err
	}
	return s.cache.Clear(ctx)
}
