// Package bolt implements a persistent local vector store on bbolt.
// Search is brute-force cosine similarity over all stored vectors; the
// collection sizes this system indexes stay well within that.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"muetbot/internal/domain"
	"muetbot/internal/vectorstore"
	"muetbot/internal/vectorstore/memory"
)

var _ vectorstore.Storage = (*Storage)(nil)

var bucketRecords = []byte("records")

// record is the stored form of one embedded chunk.
type record struct {
	Chunk  domain.Chunk `json:"chunk"`
	Vector []float64    `json:"vector"`
}

// Storage persists embedding records in a single bbolt file.
type Storage struct {
	db   *bbolt.DB
	path string
}

// Open opens or creates the store file at path.
func Open(path string) (*Storage, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Storage{db: db, path: path}, nil
}

// Path returns the file the store was opened from.
func (s *Storage) Path() string { return s.path }

// Count returns the number of stored records.
func (s *Storage) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	return count, err
}

// Upsert writes one record per chunk, keyed by chunk ID.
func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for i := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(record{Chunk: chunks[i], Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(chunks[i].ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search scans all records and returns the topK nearest by cosine
// similarity.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	var results []domain.SearchResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			results = append(results, domain.SearchResult{
				Chunk: rec.Chunk,
				Score: memory.Cosine(rec.Vector, vector),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Close flushes and closes the underlying database.
func (s *Storage) Close() error { return s.db.Close() }
