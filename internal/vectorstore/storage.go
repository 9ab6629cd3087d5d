package vectorstore

import (
	"context"

	"muetbot/internal/domain"
)

// Storage persists vectors and supports similarity search.
type Storage interface {
	Count() (int, error)
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Close() error
}
