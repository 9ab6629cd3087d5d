package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muetbot/internal/domain"
)

type stubEmbedder struct{}

func (stubEmbedder) Name() string   { return "stub" }
func (stubEmbedder) Dimension() int { return 3 }

func (stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return []float64{float64(len(text)), 1, 0}, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, _ := s.Embed(ctx, t)
		out = append(out, v)
	}
	return out, nil
}

type stubStore struct {
	chunks []domain.Chunk
}

func (s *stubStore) Count() (int, error) { return len(s.chunks), nil }

func (s *stubStore) Upsert(_ context.Context, chunks []domain.Chunk, _ [][]float64) error {
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *stubStore) Search(_ context.Context, _ []float64, topK int) ([]domain.SearchResult, error) {
	out := make([]domain.SearchResult, 0, topK)
	for i, c := range s.chunks {
		if i == topK {
			break
		}
		out = append(out, domain.SearchResult{Chunk: c, Score: 1})
	}
	return out, nil
}

func (s *stubStore) Close() error { return nil }

type stubModel struct {
	responses []string
	failures  int
	prompts   []string
}

func (m *stubModel) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.failures > 0 {
		m.failures--
		return "", errors.New("temporarily unavailable")
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func newTestChain(store domain.VectorStore, model domain.LanguageModel) *Chain {
	retr := NewRetriever(stubEmbedder{}, store, DefaultTopK)
	return NewChain(retr, NewPromptAssembler(), model)
}

func TestChainAnswerPlainResponse(t *testing.T) {
	store := &stubStore{chunks: []domain.Chunk{{ChunkID: "a:0", Text: "admissions close on friday"}}}
	model := &stubModel{responses: []string{"Admissions close on Friday."}}

	answer, err := newTestChain(store, model).Answer(context.Background(), "when do admissions close?")

	require.NoError(t, err)
	assert.Equal(t, "Admissions close on Friday.", answer)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "admissions close on friday")
	assert.Contains(t, model.prompts[0], "when do admissions close?")
}

func TestChainAnswerKeyedResponse(t *testing.T) {
	store := &stubStore{chunks: []domain.Chunk{{ChunkID: "a:0", Text: "ctx"}}}
	model := &stubModel{responses: []string{`{"result": "from the result key"}`}}

	answer, err := newTestChain(store, model).Answer(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "from the result key", answer)
}

func TestChainRetriesTransientFailure(t *testing.T) {
	store := &stubStore{chunks: []domain.Chunk{{ChunkID: "a:0", Text: "ctx"}}}
	model := &stubModel{responses: []string{"recovered"}, failures: 2}

	answer, err := newTestChain(store, model).Answer(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.GreaterOrEqual(t, len(model.prompts), 3)
}

func TestChainEmptyIndexStillAnswers(t *testing.T) {
	model := &stubModel{responses: []string{"I don't have that specific information."}}

	answer, err := newTestChain(&stubStore{}, model).Answer(context.Background(), "q")

	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	require.Len(t, model.prompts, 1)
	assert.True(t, strings.Contains(model.prompts[0], "CONTEXT FROM MUET DOCUMENTS:"))
}
