package stream

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var ErrNothingToRemove = errors.New("stream: no item returned since last remove or reset")

const DefaultChunkSize = 20

// ChunkedShuffle buffers a source chunk by chunk and reorders each chunk as it
// arrives. The buffer holds every item fetched and not removed, so ResetToStart
// can rewind over it without touching the source again.
//
// Not safe for concurrent use.
type ChunkedShuffle[T any] struct {
	src       Source[T]
	chunkSize int
	transform Transform[T]

	buffer    []T
	cursor    int
	exhausted bool
	removable bool
}

func NewChunkedShuffle[T any](src Source[T], chunkSize int, transform Transform[T]) *ChunkedShuffle[T] {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	if transform == nil {
		transform = NoShuffle[T]()
	}
	return &ChunkedShuffle[T]{
		src:       src,
		chunkSize: chunkSize,
		transform: transform,
	}
}

// HasNext may fetch the next chunk when the buffered window is fully visited.
func (s *ChunkedShuffle[T]) HasNext(ctx context.Context) (bool, error) {
	if s.cursor < len(s.buffer) {
		return true, nil
	}
	if err := s.fill(ctx); err != nil {
		return false, err
	}
	return s.cursor < len(s.buffer), nil
}

func (s *ChunkedShuffle[T]) Next(ctx context.Context) (T, error) {
	var zero T
	ok, err := s.HasNext(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrDone
	}
	item := s.buffer[s.cursor]
	s.cursor++
	s.removable = true
	return item, nil
}

// Remove drops the item returned by the last Next call from the buffer.
func (s *ChunkedShuffle[T]) Remove() error {
	if !s.removable {
		return ErrNothingToRemove
	}
	s.cursor--
	s.buffer = slices.Delete(s.buffer, s.cursor, s.cursor+1)
	s.removable = false
	return nil
}

func (s *ChunkedShuffle[T]) ResetToStart() {
	s.cursor = 0
	s.removable = false
}

// Buffered is the number of fetched items still held.
func (s *ChunkedShuffle[T]) Buffered() int {
	return len(s.buffer)
}

func (s *ChunkedShuffle[T]) fill(ctx context.Context) error {
	for !s.exhausted && s.cursor >= len(s.buffer) {
		chunk := make([]T, 0, s.chunkSize)
		for len(chunk) < s.chunkSize {
			item, err := s.src.Next(ctx)
			if errors.Is(err, ErrDone) {
				s.exhausted = true
				break
			}
			if err != nil {
				return fmt.Errorf("fetch chunk: %w", err)
			}
			chunk = append(chunk, item)
		}
		if len(chunk) == 0 {
			continue
		}
		s.transform(chunk)
		s.buffer = append(s.buffer, chunk...)
	}
	return nil
}
