package entity

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// ErrSequenceConsumed is returned by a second pass over a generator backed
// sequence that was not fully materialized by the first.
var ErrSequenceConsumed = errors.New("entity: sequence already consumed")

// Generator produces the elements of a sequence. It must stop when yield
// returns false.
type Generator[T any] func(ctx context.Context, yield func(T) bool) error

// Sequence is a lazily produced collection. While backed by a generator it
// can be walked once; after one complete walk it is materialized and can be
// walked any number of times.
type Sequence[T any] struct {
	mu           sync.Mutex
	gen          Generator[T]
	items        []T
	started      bool
	materialized bool
}

// NewSequence wraps a generator.
func NewSequence[T any](gen Generator[T]) *Sequence[T] {
	return &Sequence[T]{gen: gen}
}

// SequenceOf returns a materialized sequence over items.
func SequenceOf[T any](items ...T) *Sequence[T] {
	return &Sequence[T]{items: items, started: true, materialized: true}
}

// Materialized reports whether every element has been produced.
func (s *Sequence[T]) Materialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materialized
}

// All walks the sequence. Errors from the generator are yielded once with
// the zero element and end the walk.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		s.mu.Lock()
		if s.materialized {
			items := s.items
			s.mu.Unlock()
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			return
		}
		if s.started {
			s.mu.Unlock()
			var zero T
			yield(zero, ErrSequenceConsumed)
			return
		}
		s.started = true
		gen := s.gen
		s.mu.Unlock()

		var (
			produced []T
			stopped  bool
		)
		err := gen(ctx, func(item T) bool {
			produced = append(produced, item)
			if !yield(item, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil {
			if !stopped {
				var zero T
				yield(zero, err)
			}
			return
		}
		if stopped {
			return
		}

		s.mu.Lock()
		s.items = produced
		s.materialized = true
		s.gen = nil
		s.mu.Unlock()
	}
}

// Collect walks the whole sequence and returns its elements.
func (s *Sequence[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for item, err := range s.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
