package stream

import (
	"slices"

	"github.com/riskibarqy/issue-lottery/internal/platform/random"
)

// Transform reorders one freshly fetched chunk in place.
type Transform[T any] func(chunk []T)

func NoShuffle[T any]() Transform[T] {
	return func([]T) {}
}

// Shuffle is a Fisher-Yates shuffle driven by rnd.
func Shuffle[T any](rnd random.Source) Transform[T] {
	return func(chunk []T) {
		for i := len(chunk) - 1; i > 0; i-- {
			j := rnd.IntN(i + 1)
			chunk[i], chunk[j] = chunk[j], chunk[i]
		}
	}
}

func SortBy[T any](cmp func(a, b T) int) Transform[T] {
	return func(chunk []T) {
		slices.SortStableFunc(chunk, cmp)
	}
}
