package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunAll_AllComplete(t *testing.T) {
	f := NewFanOut(3, zap.NewNop())

	items := []WorkItem[int]{
		{ID: "a", Execute: func(ctx context.Context) (int, error) { return 1, nil }},
		{ID: "b", Execute: func(ctx context.Context) (int, error) { return 2, nil }},
		{ID: "c", Execute: func(ctx context.Context) (int, error) { return 0, errors.New("boom") }},
	}

	results := RunAll(context.Background(), f, items)
	require.Len(t, results, 3)

	byID := make(map[string]WorkResult[int])
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, 1, byID["a"].Result)
	assert.Equal(t, 2, byID["b"].Result)
	assert.Error(t, byID["c"].Err)
}

func TestRunAll_BoundedConcurrency(t *testing.T) {
	f := NewFanOut(2, zap.NewNop())

	var running, peak atomic.Int32
	items := make([]WorkItem[struct{}], 6)
	for i := range items {
		items[i] = WorkItem[struct{}]{
			ID: string(rune('a' + i)),
			Execute: func(ctx context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			},
		}
	}

	results := RunAll(context.Background(), f, items)
	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunAll_CanceledContext(t *testing.T) {
	f := NewFanOut(1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Whether an item loses the semaphore race or starts and observes the
	// canceled context, every result must carry the cancellation error.
	exec := func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	items := []WorkItem[int]{
		{ID: "a", Execute: exec},
		{ID: "b", Execute: exec},
	}

	results := RunAll(ctx, f, items)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunAll_EmptyInput(t *testing.T) {
	f := NewFanOut(2, zap.NewNop())
	assert.Nil(t, RunAll[int](context.Background(), f, nil))
}

func TestNewFanOut_DefaultsConcurrency(t *testing.T) {
	f := NewFanOut(0, zap.NewNop())
	assert.Equal(t, 6, f.maxConcurrent)
}
