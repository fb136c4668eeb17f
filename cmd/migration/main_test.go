package main

import (
	"strings"
	"testing"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default 1 step, got %d (%v)", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d (%v)", got, err)
	}
	for _, raw := range []string{"0", "-1", "x"} {
		if _, err := parseSteps([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestWithPreparedBinaryFlag(t *testing.T) {
	in := "postgres://u:p@localhost:5432/issue_lottery?sslmode=disable"
	if got := withPreparedBinaryFlag(in, false); got != in {
		t.Fatalf("expected url unchanged, got %q", got)
	}
	if got := withPreparedBinaryFlag(in, true); !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag in url, got %q", got)
	}
}
