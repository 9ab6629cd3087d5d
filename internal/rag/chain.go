package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"muetbot/internal/domain"
	"muetbot/internal/llm"
)

// Chain answers a question by retrieving context, assembling the
// prompt and calling the language model.
type Chain struct {
	retriever *Retriever
	assembler *PromptAssembler
	model     domain.LanguageModel
	now       func() time.Time

	maxElapsed time.Duration
}

// NewChain wires a retriever, prompt assembler and language model.
func NewChain(retriever *Retriever, assembler *PromptAssembler, model domain.LanguageModel) *Chain {
	return &Chain{
		retriever:  retriever,
		assembler:  assembler,
		model:      model,
		now:        time.Now,
		maxElapsed: 30 * time.Second,
	}
}

// Answer runs the full retrieve-prompt-complete cycle and returns the
// final answer text. Transient model failures are retried with
// exponential backoff.
func (c *Chain) Answer(ctx context.Context, question string) (string, error) {
	results, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	prompt := c.assembler.Assemble(results, question, c.now())

	var raw string
	operation := func() error {
		var cerr error
		raw, cerr = c.model.Complete(ctx, prompt)
		return cerr
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", fmt.Errorf("language model: %w", err)
	}

	return llm.ParseResponse(raw).Final(), nil
}
