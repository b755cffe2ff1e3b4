// Package pipeline provides the stage abstraction frames pass through
// between loading and writing.
package pipeline

import (
	"context"
)

// Stage represents a processing stage in the pipeline.
// Each stage takes an input and produces an output.
type Stage[In, Out any] interface {
	// Execute runs the stage with the given input and returns the output.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc is a function adapter for Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Chain runs stages one after the other, feeding each output to the next
// stage. It stops at the first error.
func Chain[T any](stages ...Stage[T, T]) Stage[T, T] {
	return StageFunc[T, T](func(ctx context.Context, v T) (T, error) {
		for _, s := range stages {
			var err error
			if v, err = s.Execute(ctx, v); err != nil {
				return v, err
			}
		}
		return v, nil
	})
}

// Identity returns a stage that passes its input through.
func Identity[T any]() Stage[T, T] {
	return StageFunc[T, T](func(_ context.Context, v T) (T, error) {
		return v, nil
	})
}
