package stream

import (
	"context"
	"errors"
)

// ErrDone is returned by Next when a source has no more items.
var ErrDone = errors.New("stream: no more items")

// Source yields items in order until it returns ErrDone.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

type SourceFunc[T any] func(ctx context.Context) (T, error)

func (f SourceFunc[T]) Next(ctx context.Context) (T, error) {
	return f(ctx)
}

type sliceSource[T any] struct {
	items []T
	pos   int
}

// FromSlice returns a source over a copy of items.
func FromSlice[T any](items []T) Source[T] {
	return &sliceSource[T]{items: append([]T(nil), items...)}
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.pos >= len(s.items) {
		return zero, ErrDone
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}

type filterSource[T any] struct {
	src  Source[T]
	keep func(T) bool
}

// Filter drops every item for which keep returns false.
func Filter[T any](src Source[T], keep func(T) bool) Source[T] {
	if keep == nil {
		return src
	}
	return &filterSource[T]{src: src, keep: keep}
}

func (f *filterSource[T]) Next(ctx context.Context) (T, error) {
	for {
		item, err := f.src.Next(ctx)
		if err != nil {
			return item, err
		}
		if f.keep(item) {
			return item, nil
		}
	}
}

// Drain reads src until ErrDone.
func Drain[T any](ctx context.Context, src Source[T]) ([]T, error) {
	var out []T
	for {
		item, err := src.Next(ctx)
		if errors.Is(err, ErrDone) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
}
