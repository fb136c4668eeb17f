package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/config"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:                config.EnvDev,
		HTTPAddr:              ":0",
		StorageDriver:         config.StorageMemory,
		LotteryConfigPath:     "lottery.yaml",
		LotteryConfigCacheTTL: 30 * time.Second,
		DrawSchedulerEnabled:  false,
		DrawCron:              "0 * * * *",
		DrawLocation:          time.UTC,
		DrawRunTimeout:        time.Minute,
		DrawChunkSize:         20,
		GitHubPageSize:        50,
		GitHubRetryAttempts:   3,
		GitHubRetryBackoff:    time.Second,
		InternalJobToken:      "token",
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	if err := a.StartScheduler(); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	if !a.Scheduler.NextRun().IsZero() {
		t.Fatalf("expected no scheduled run when the scheduler is disabled")
	}

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}
}

func TestNew_ScheduledWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.DrawSchedulerEnabled = true

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	if err := a.StartScheduler(); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	if a.Scheduler.NextRun().IsZero() {
		t.Fatalf("expected a scheduled run")
	}
}

func TestNew_RejectsInvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.DrawSchedulerEnabled = true
	cfg.DrawCron = "not a cron"

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for invalid cron")
	}
}

func TestNew_RequiresHTTPAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
