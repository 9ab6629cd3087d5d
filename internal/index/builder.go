// Package index builds and loads the persistent vector index.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"muetbot/internal/domain"
	"muetbot/internal/vectorstore/bolt"
	"muetbot/internal/vectorstore/memory"
	"muetbot/internal/vectorstore/qdrant"
)

// Builder embeds chunks and materializes them into a vector store.
type Builder struct {
	embedder domain.Embedder
}

// NewBuilder creates an index builder around an embedder.
func NewBuilder(embedder domain.Embedder) *Builder {
	return &Builder{embedder: embedder}
}

// BuildOrLoadBolt returns a ready store at path. With reuseExisting set
// and a non-empty index already on disk, the existing index is loaded
// as-is. An existing index with zero entries is treated as corrupt and
// rebuilt. Rebuilds go to a temporary file that replaces the live path
// only after a fully successful build, so a failed build leaves the
// previous index authoritative.
func (b *Builder) BuildOrLoadBolt(ctx context.Context, path string, chunks []domain.Chunk, reuseExisting bool) (*bolt.Storage, error) {
	if reuseExisting {
		if _, err := os.Stat(path); err == nil {
			store, err := bolt.Open(path)
			if err != nil {
				return nil, err
			}
			count, err := store.Count()
			if err != nil {
				store.Close()
				return nil, err
			}
			if count > 0 {
				slog.Info("loaded existing index", "path", path, "entries", count)
				return store, nil
			}
			store.Close()
			slog.Warn("existing index is empty, rebuilding", "path", path)
		}
	}
	return b.rebuildBolt(ctx, path, chunks)
}

func (b *Builder) rebuildBolt(ctx context.Context, path string, chunks []domain.Chunk) (*bolt.Storage, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("refusing to build an empty index")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	slog.Info("building index", "path", path, "chunks", len(chunks))
	vectors, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	tmpPath := path + ".tmp"
	os.Remove(tmpPath)
	tmp, err := bolt.Open(tmpPath)
	if err != nil {
		return nil, err
	}
	if err := tmp.Upsert(ctx, chunks, vectors); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	count, err := tmp.Count()
	if err == nil && count != len(chunks) {
		err = fmt.Errorf("index build wrote %d entries for %d chunks", count, len(chunks))
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("swap index into place: %w", err)
	}
	slog.Info("index built", "path", path, "entries", count)
	return bolt.Open(path)
}

// BuildOrLoadQdrant mirrors the bolt semantics against a remote Qdrant
// collection: reuse a non-empty collection, otherwise drop and rebuild.
func (b *Builder) BuildOrLoadQdrant(ctx context.Context, store *qdrant.Storage, chunks []domain.Chunk, reuseExisting bool) (*qdrant.Storage, error) {
	if reuseExisting {
		count, err := store.Count()
		if err == nil && count > 0 {
			slog.Info("reusing existing qdrant collection", "entries", count)
			return store, nil
		}
		if err == nil {
			slog.Warn("qdrant collection is empty, rebuilding")
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("refusing to build an empty index")
	}
	vectors, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := store.Drop(ctx); err != nil {
		return nil, err
	}
	if err := store.Init(ctx, len(vectors[0])); err != nil {
		return nil, err
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	return store, nil
}

// BuildMemory embeds the chunks into a fresh in-memory store. Nothing
// is persisted, every build starts from scratch.
func (b *Builder) BuildMemory(ctx context.Context, chunks []domain.Chunk) (*memory.Storage, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("refusing to build an empty index")
	}
	vectors, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	store := memory.NewStorage()
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	return store, nil
}

func (b *Builder) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float64, error) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}
