package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muetbot/internal/domain"
	"muetbot/internal/service"
	"muetbot/internal/vectorstore/memory"
)

type testEmbedder struct {
	fail bool
}

func (testEmbedder) Name() string   { return "test" }
func (testEmbedder) Dimension() int { return 2 }

func (e testEmbedder) Embed(context.Context, string) ([]float64, error) {
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	return []float64{1, 0}, nil
}

func (e testEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		v, err := e.Embed(ctx, "")
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type countingModel struct {
	calls int
}

func (m *countingModel) Complete(context.Context, string) (string, error) {
	m.calls++
	return "the answer", nil
}

func readyPipeline(t *testing.T, embedder domain.Embedder, model domain.LanguageModel) *service.Pipeline {
	t.Helper()
	builder := func(ctx context.Context, reuse bool) (domain.VectorStore, error) {
		store := memory.NewStorage()
		chunks := []domain.Chunk{{ChunkID: "d:0", Text: "MUET was established in 1963."}}
		require.NoError(t, store.Upsert(ctx, chunks, [][]float64{{1, 0}}))
		return store, nil
	}
	p := service.NewPipeline(builder, embedder, model, 5)
	require.NoError(t, p.Init(context.Background()))
	return p
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatSuccess(t *testing.T) {
	model := &countingModel{}
	srv := New(readyPipeline(t, testEmbedder{}, model), nil, "")

	rec := postChat(t, srv.Handler(), `{"query": "when was MUET established?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the answer", resp.Answer)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, model.calls)
}

func TestChatEmptyQuery(t *testing.T) {
	model := &countingModel{}
	srv := New(readyPipeline(t, testEmbedder{}, model), nil, "")

	rec := postChat(t, srv.Handler(), `{"query": "   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, model.calls)
}

func TestChatMalformedBody(t *testing.T) {
	srv := New(readyPipeline(t, testEmbedder{}, &countingModel{}), nil, "")

	rec := postChat(t, srv.Handler(), `{"query":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatNotReady(t *testing.T) {
	p := service.NewPipeline(nil, testEmbedder{}, &countingModel{}, 5)
	srv := New(p, nil, "")

	rec := postChat(t, srv.Handler(), `{"query": "hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Error)
}

func TestChatQueryFailure(t *testing.T) {
	srv := New(readyPipeline(t, testEmbedder{fail: true}, &countingModel{}), nil, "")

	rec := postChat(t, srv.Handler(), `{"query": "hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := New(readyPipeline(t, testEmbedder{}, &countingModel{}), func() bool { return true }, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.QAReady)
	assert.True(t, resp.SchedulerRunning)
}

func TestHealthBeforeInit(t *testing.T) {
	p := service.NewPipeline(nil, testEmbedder{}, &countingModel{}, 5)
	srv := New(p, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.QAReady)
	assert.False(t, resp.SchedulerRunning)
}

func TestInfoEndpoint(t *testing.T) {
	srv := New(readyPipeline(t, testEmbedder{}, &countingModel{}), nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "MUETBOT"))
}
