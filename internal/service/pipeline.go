// Package service owns the ingest-to-answer pipeline and the live
// query handle. Rebuilds produce a new handle that is swapped in
// atomically so in-flight queries keep the index they started with.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"muetbot/internal/domain"
	"muetbot/internal/rag"
)

// ErrNotReady is returned for queries before the first successful
// index build.
var ErrNotReady = errors.New("answer chain is not ready")

// StoreBuilder produces a ready vector store. When reuse is true an
// existing non-empty index may be loaded instead of rebuilt.
type StoreBuilder func(ctx context.Context, reuse bool) (domain.VectorStore, error)

// handle is one immutable query path over one store. It is reference
// counted: a retired handle's store is closed only once the last
// in-flight query has released it.
type handle struct {
	store domain.VectorStore
	chain *rag.Chain

	mu      sync.Mutex
	refs    int
	retired bool
}

// acquire registers a reader. It fails once the handle is retired.
func (h *handle) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retired {
		return false
	}
	h.refs++
	return true
}

func (h *handle) release() {
	h.mu.Lock()
	h.refs--
	closeNow := h.retired && h.refs == 0
	h.mu.Unlock()
	if closeNow {
		h.closeStore()
	}
}

// retire marks the handle as replaced. The store closes immediately
// when no query holds it, otherwise when the last one releases.
func (h *handle) retire() {
	h.mu.Lock()
	closeNow := !h.retired && h.refs == 0
	h.retired = true
	h.mu.Unlock()
	if closeNow {
		h.closeStore()
	}
}

func (h *handle) closeStore() {
	if err := h.store.Close(); err != nil {
		slog.Warn("closing previous vector store", "error", err)
	}
}

// Pipeline assembles the answering chain over whatever index build
// succeeded last.
type Pipeline struct {
	buildStore StoreBuilder
	embedder   domain.Embedder
	model      domain.LanguageModel
	assembler  *rag.PromptAssembler
	topK       int

	mu      sync.Mutex // serializes builds
	current atomic.Pointer[handle]
}

// NewPipeline wires the pipeline. No index is built until Init.
func NewPipeline(buildStore StoreBuilder, embedder domain.Embedder, model domain.LanguageModel, topK int) *Pipeline {
	return &Pipeline{
		buildStore: buildStore,
		embedder:   embedder,
		model:      model,
		assembler:  rag.NewPromptAssembler(),
		topK:       topK,
	}
}

// Init builds or loads the index and makes the chain ready.
func (p *Pipeline) Init(ctx context.Context) error {
	return p.build(ctx, true)
}

// Rebuild constructs a fresh index and swaps it in. On failure the
// previous handle keeps serving.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	return p.build(ctx, false)
}

func (p *Pipeline) build(ctx context.Context, reuse bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.buildStore(ctx, reuse)
	if err != nil {
		return fmt.Errorf("build vector store: %w", err)
	}

	retriever := rag.NewRetriever(p.embedder, store, p.topK)
	next := &handle{
		store: store,
		chain: rag.NewChain(retriever, p.assembler, p.model),
	}

	if old := p.current.Swap(next); old != nil {
		old.retire()
	}

	if count, err := store.Count(); err == nil {
		slog.Info("answer chain ready", "chunks", count)
	}
	return nil
}

// Answer runs one question through the current chain. The handle it
// acquires stays open for the whole query even if a rebuild swaps in
// a new index meanwhile.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	h := p.acquireCurrent()
	if h == nil {
		return "", ErrNotReady
	}
	defer h.release()
	return h.chain.Answer(ctx, question)
}

// acquireCurrent loads the live handle and registers as a reader,
// retrying if a concurrent swap retired the loaded handle first.
func (p *Pipeline) acquireCurrent() *handle {
	for {
		h := p.current.Load()
		if h == nil {
			return nil
		}
		if h.acquire() {
			return h
		}
	}
}

// Ready reports whether a chain has been built.
func (p *Pipeline) Ready() bool {
	return p.current.Load() != nil
}

// Close retires the current handle. The store closes as soon as any
// in-flight queries finish.
func (p *Pipeline) Close() error {
	if h := p.current.Swap(nil); h != nil {
		h.retire()
	}
	return nil
}
