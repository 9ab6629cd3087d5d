package rag

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muetbot/internal/domain"
)

func results(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(texts))
	for i, t := range texts {
		out = append(out, domain.SearchResult{
			Chunk: domain.Chunk{ChunkID: "doc:" + string(rune('0'+i)), Text: t},
			Score: 1,
		})
	}
	return out
}

func TestAssembleSubstitutesPlaceholders(t *testing.T) {
	a := NewPromptAssembler()
	now := time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC)

	prompt := a.Assemble(results("admissions open", "fee schedule"), "when do admissions open?", now)

	assert.Contains(t, prompt, "when do admissions open?")
	assert.Contains(t, prompt, "admissions open\n\nfee schedule")
	assert.NotContains(t, prompt, "{content}")
	assert.NotContains(t, prompt, "{question}")
	assert.NotContains(t, prompt, "{date_time}")
}

func TestAssembleFormatsPakistanTime(t *testing.T) {
	a := NewPromptAssembler()
	// 06:30 UTC is 11:30 PKT.
	now := time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC)

	prompt := a.Assemble(nil, "hello", now)

	require.Contains(t, prompt, "2026-03-14 11:30:00 PKT")
}

func TestAssembleEmptyContext(t *testing.T) {
	a := NewPromptAssembler()

	prompt := a.Assemble(nil, "hi", time.Now())

	assert.Contains(t, prompt, "CONTEXT FROM MUET DOCUMENTS:\n\n")
	assert.True(t, strings.Contains(prompt, "MUETBOT"))
}
