package domain

import "context"

// Document represents a single text artifact loaded into the system.
type Document struct {
	ID       string
	Source   string
	Content  string
	Metadata map[string]string
}

// Chunk is a bounded part of a document used for indexing and retrieval.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// Article is a single news record produced by the news ingestor.
// Content is empty when the structural markers were not found in the
// article page; the record is still kept so callers can see the URL
// was visited.
type Article struct {
	URL     string
	Content string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into numeric vector representations.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Split(documents []Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Count() (int, error)
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Close() error
}

// LanguageModel generates a completion for an assembled prompt.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
