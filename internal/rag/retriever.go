package rag

import (
	"context"
	"fmt"
	"log/slog"

	"muetbot/internal/domain"
)

// DefaultTopK is the number of nearest chunks fed into the prompt.
const DefaultTopK = 10

// Retriever returns the chunks nearest to a query from a fixed store
// handle. Pipelines swap in a new Retriever when the index is rebuilt.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	topK     int
}

// NewRetriever creates a retriever over a store handle.
func NewRetriever(embedder domain.Embedder, store domain.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the query and returns up to topK nearest chunks.
// An empty index is a warning, not an error: the result is empty.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if count, err := r.store.Count(); err == nil && count == 0 {
		slog.Warn("vector index is empty, retrieval will return nothing")
		return nil, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return results, nil
}
