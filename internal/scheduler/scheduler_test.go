package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningLifecycle(t *testing.T) {
	s := New(Config{NewsHour: 12}, func(ctx context.Context) error { return nil }, nil)

	assert.False(t, s.Running())
	require.NoError(t, s.Start())
	assert.True(t, s.Running())

	s.Stop()
	assert.False(t, s.Running())
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(Config{NewsHour: 12}, func(ctx context.Context) error { return nil }, nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestFullCrawlFiresOnce(t *testing.T) {
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
	s := New(Config{NewsHour: 12, FullCrawlAt: time.Now().Add(20 * time.Millisecond)}, nil, job)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestFullCrawlInPastIsSkipped(t *testing.T) {
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
	s := New(Config{NewsHour: 12, FullCrawlAt: time.Now().Add(-time.Hour)}, nil, job)
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
