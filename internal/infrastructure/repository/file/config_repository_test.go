package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
repositories:
  - repository: acme/widgets
    buckets:
      - name: triage
        labels: [needs-triage, " bug "]
        delay: 1d
        timeout: 3d
      - name: stale
        labels: [stale]
        delay: 12h
        timeout: 1d12h
    participants:
      - username: alice
        timezone: Asia/Jakarta
        buckets:
          triage: {max_issues: 3, labels: [area/api]}
          stale: {max_issues: 1}
      - username: bob
        buckets:
          triage: {max_issues: 2}
  - repository: not-a-repo
    buckets: []
`

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		"":      0,
		"3d":    72 * time.Hour,
		"1d12h": 36 * time.Hour,
		"90m":   90 * time.Minute,
	}
	for raw, want := range cases {
		got, err := ParseDuration(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseDuration("xd"); err == nil {
		t.Fatalf("expected error for invalid day count")
	}
}

func TestConfigRepository_List(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lottery.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configs, err := NewConfigRepository(path, nil).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("expected invalid repository to be skipped, got %d configs", len(configs))
	}

	cfg := configs[0]
	if cfg.Repository != "acme/widgets" || len(cfg.Buckets) != 2 || len(cfg.Participants) != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	triage := cfg.Buckets[0]
	if triage.Delay != 24*time.Hour || triage.Timeout != 72*time.Hour {
		t.Fatalf("unexpected triage durations %+v", triage)
	}
	if len(triage.Labels) != 2 || triage.Labels[1] != "bug" {
		t.Fatalf("unexpected triage labels %v", triage.Labels)
	}
	if cfg.Buckets[1].Timeout != 36*time.Hour {
		t.Fatalf("unexpected stale timeout %s", cfg.Buckets[1].Timeout)
	}

	alice := cfg.Participants[0]
	if alice.Timezone != "Asia/Jakarta" || alice.Buckets["triage"].MaxIssues != 3 || alice.Buckets["triage"].Labels[0] != "area/api" {
		t.Fatalf("unexpected alice %+v", alice)
	}
	if _, ok := cfg.Participants[1].Buckets["stale"]; ok {
		t.Fatalf("bob should not participate in stale")
	}
}

func TestConfigRepository_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewConfigRepository(filepath.Join(t.TempDir(), "missing.yaml"), nil).List(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
