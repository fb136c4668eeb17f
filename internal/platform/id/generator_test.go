package id

import (
	"strings"
	"testing"
)

func TestRandomGenerator_NewID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	gen := NewRandomGenerator()
	for range 100 {
		v, err := gen.NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if len(v) != 32 {
			t.Fatalf("expected 32 hex chars, got %q", v)
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate id %q", v)
		}
		seen[v] = struct{}{}
	}
}

func TestPrefixedGenerator(t *testing.T) {
	t.Parallel()

	v, err := NewPrefixedGenerator("lh_").NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if !strings.HasPrefix(v, "lh_") || len(v) != 35 {
		t.Fatalf("unexpected prefixed id %q", v)
	}

	if v, _ := NewPrefixedGenerator(" ").NewID(); strings.Contains(v, "_") {
		t.Fatalf("expected no prefix for blank input, got %q", v)
	}
}
