package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// FanOut runs a batch of work items with bounded parallelism. Plan entries
// execute through it so one slow query cannot serialize its siblings.
type FanOut struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewFanOut creates a fan-out runner. maxConcurrent below 1 defaults to 6.
func NewFanOut(maxConcurrent int, logger *zap.Logger) *FanOut {
	if maxConcurrent < 1 {
		maxConcurrent = 6
	}
	return &FanOut{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("fanout"),
	}
}

// WorkItem is a unit of work identified for tracking.
type WorkItem[T any] struct {
	ID      string
	Execute func(ctx context.Context) (T, error)
}

// WorkResult pairs a work item's ID with its outcome.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// RunAll executes every item and returns results in completion order.
// All items run to completion even when some fail; a canceled context
// yields ctx.Err() results for items that never acquired a slot.
func RunAll[T any](ctx context.Context, f *FanOut, items []WorkItem[T]) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], 0, len(items))
	resultsChan := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, f.maxConcurrent)

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- WorkResult[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := item.Execute(ctx)
			resultsChan <- WorkResult[T]{ID: item.ID, Result: result, Err: err}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		results = append(results, result)
	}
	return results
}
