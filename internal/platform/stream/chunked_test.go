package stream

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/riskibarqy/issue-lottery/internal/platform/random"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func drainChunked(t *testing.T, ctx context.Context, s *ChunkedShuffle[int]) []int {
	t.Helper()
	var out []int
	for {
		item, err := s.Next(ctx)
		if errors.Is(err, ErrDone) {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, item)
	}
}

func TestChunkedShuffle_ChunkSizeOnePreservesOrder(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice(seq(25)), 1, Shuffle[int](random.NewSeeded(7)))

	got := drainChunked(t, ctx, s)
	if !slices.Equal(got, seq(25)) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestChunkedShuffle_ReordersOnlyWithinWindow(t *testing.T) {
	t.Parallel()

	const chunk = 4
	ctx := t.Context()
	for seed := uint64(0); seed < 20; seed++ {
		s := NewChunkedShuffle(FromSlice(seq(18)), chunk, Shuffle[int](random.NewSeeded(seed)))
		got := drainChunked(t, ctx, s)
		if len(got) != 18 {
			t.Fatalf("seed=%d: expected 18 items, got %d", seed, len(got))
		}
		for pos, item := range got {
			if (pos / chunk) != ((item - 1) / chunk) {
				t.Fatalf("seed=%d: item %d crossed its chunk boundary (position %d)", seed, item, pos)
			}
		}
	}
}

func TestChunkedShuffle_ShuffleActuallyReorders(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	seen := map[string]struct{}{}
	for seed := uint64(0); seed < 10; seed++ {
		s := NewChunkedShuffle(FromSlice(seq(8)), 8, Shuffle[int](random.NewSeeded(seed)))
		got := drainChunked(t, ctx, s)
		seen[formatInts(got)] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected at least two orderings, got %d", len(seen))
	}
}

func TestChunkedShuffle_SortByWithinChunk(t *testing.T) {
	t.Parallel()

	src := FromSlice([]int{3, 1, 2, 9, 7, 8, 4})
	s := NewChunkedShuffle(src, 3, SortBy(func(a, b int) int { return a - b }))

	got := drainChunked(t, t.Context(), s)
	want := []int{1, 2, 3, 7, 8, 9, 4}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkedShuffle_ResetIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice(seq(10)), 3, NoShuffle[int]())

	// Consume part of the first chunk and remove one item.
	if _, err := s.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	second, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if second != 2 {
		t.Fatalf("expected 2, got %d", second)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	want := []int{1, 3, 4, 5, 6, 7, 8, 9, 10}
	for i := 0; i < 3; i++ {
		s.ResetToStart()
		got := drainChunked(t, ctx, s)
		if !slices.Equal(got, want) {
			t.Fatalf("pass %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestChunkedShuffle_ResetDoesNotReshuffle(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice(seq(12)), 5, Shuffle[int](random.NewSeeded(99)))

	first := drainChunked(t, ctx, s)
	s.ResetToStart()
	second := drainChunked(t, ctx, s)
	if !slices.Equal(first, second) {
		t.Fatalf("expected identical passes, got %v and %v", first, second)
	}
}

func TestChunkedShuffle_FetchDoesNotSkipUnvisited(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice(seq(6)), 2, NoShuffle[int]())

	// Visit the first chunk, rewind, then read into the second chunk.
	drainN(t, ctx, s, 2)
	s.ResetToStart()
	got := drainN(t, ctx, s, 4)
	if !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Fatalf("unexpected items: %v", got)
	}
	if s.Buffered() != 4 {
		t.Fatalf("expected 4 buffered items, got %d", s.Buffered())
	}
}

func TestChunkedShuffle_RemoveRequiresNext(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice(seq(3)), 2, nil)

	if err := s.Remove(); !errors.Is(err, ErrNothingToRemove) {
		t.Fatalf("expected ErrNothingToRemove, got %v", err)
	}
	if _, err := s.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(); !errors.Is(err, ErrNothingToRemove) {
		t.Fatalf("expected ErrNothingToRemove on double remove, got %v", err)
	}
	s.ResetToStart()
	if got := drainChunked(t, ctx, s); !slices.Equal(got, []int{2, 3}) {
		t.Fatalf("unexpected remaining items: %v", got)
	}
}

func TestChunkedShuffle_EmptySource(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewChunkedShuffle(FromSlice[int](nil), 4, NoShuffle[int]())

	for i := 0; i < 2; i++ {
		ok, err := s.HasNext(ctx)
		if err != nil {
			t.Fatalf("has next: %v", err)
		}
		if ok {
			t.Fatalf("expected empty stream")
		}
		s.ResetToStart()
	}
	if _, err := s.Next(ctx); !errors.Is(err, ErrDone) {
		t.Fatalf("expected ErrDone, got %v", err)
	}
}

func TestChunkedShuffle_SourceErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := SourceFunc[int](func(context.Context) (int, error) { return 0, boom })
	s := NewChunkedShuffle[int](src, 2, nil)

	if _, err := s.HasNext(t.Context()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	even := Filter(FromSlice(seq(7)), func(v int) bool { return v%2 == 0 })
	got, err := Drain(t.Context(), even)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !slices.Equal(got, []int{2, 4, 6}) {
		t.Fatalf("unexpected items: %v", got)
	}
}

func drainN(t *testing.T, ctx context.Context, s *ChunkedShuffle[int], n int) []int {
	t.Helper()
	out := make([]int, 0, n)
	for range n {
		item, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, item)
	}
	return out
}

func formatInts(v []int) string {
	b := make([]byte, 0, len(v)*3)
	for _, item := range v {
		b = append(b, byte('0'+item%10), ',')
	}
	return string(b)
}
