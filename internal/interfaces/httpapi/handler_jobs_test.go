package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/usecase"
)

type fakeTrigger struct {
	err    error
	inputs []usecase.DrawRunInput
	next   time.Time
}

func (f *fakeTrigger) Trigger(_ context.Context, input usecase.DrawRunInput) error {
	f.inputs = append(f.inputs, input)
	return f.err
}

func (f *fakeTrigger) NextRun() time.Time { return f.next }

type staticConfigs []lottery.RepositoryConfig

func (s staticConfigs) List(context.Context) ([]lottery.RepositoryConfig, error) { return s, nil }

type failingConfigs struct{}

func (failingConfigs) List(context.Context) ([]lottery.RepositoryConfig, error) {
	return nil, errors.New("config file missing")
}

const jobToken = "job-secret"

func serveDrawJob(t *testing.T, trigger *fakeTrigger, configs lottery.ConfigRepository, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := NewRouter(NewHandler(trigger, configs, nil), nil, jobToken)
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/draw", strings.NewReader(body))
	if token != "" {
		req.Header.Set("X-Internal-Job-Token", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if len(body.Error.Errors) == 0 {
		return ""
	}
	return body.Error.Errors[0].Reason
}

func TestRunDrawJob_AcceptsAllRepositories(t *testing.T) {
	trigger := &fakeTrigger{}
	rec := serveDrawJob(t, trigger, nil, jobToken, "")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(trigger.inputs) != 1 || trigger.inputs[0].Repository != "" {
		t.Fatalf("unexpected trigger inputs %+v", trigger.inputs)
	}
}

func TestRunDrawJob_SingleRepository(t *testing.T) {
	trigger := &fakeTrigger{}
	configs := staticConfigs{{Repository: "acme/widgets"}}
	rec := serveDrawJob(t, trigger, configs, jobToken, `{"repository":" ACME/widgets "}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if trigger.inputs[0].Repository != "ACME/widgets" {
		t.Fatalf("unexpected repository %q", trigger.inputs[0].Repository)
	}
}

func TestRunDrawJob_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		trigger *fakeTrigger
		configs lottery.ConfigRepository
		token   string
		body    string
		status  int
		reason  string
	}{
		{name: "missing token", trigger: &fakeTrigger{}, body: "", status: http.StatusUnauthorized, reason: "unauthorized"},
		{name: "wrong token", trigger: &fakeTrigger{}, token: "nope", status: http.StatusUnauthorized, reason: "unauthorized"},
		{name: "invalid json", trigger: &fakeTrigger{}, token: jobToken, body: `{"repository":`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "unknown field", trigger: &fakeTrigger{}, token: jobToken, body: `{"repo":"a/b"}`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "not owner/name", trigger: &fakeTrigger{}, token: jobToken, body: `{"repository":"widgets"}`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "unknown repository", trigger: &fakeTrigger{}, configs: staticConfigs{{Repository: "acme/widgets"}}, token: jobToken, body: `{"repository":"acme/gadgets"}`, status: http.StatusNotFound, reason: "notFound"},
		{name: "config unavailable", trigger: &fakeTrigger{}, configs: failingConfigs{}, token: jobToken, body: `{"repository":"acme/widgets"}`, status: http.StatusServiceUnavailable, reason: "dependencyUnavailable"},
		{name: "run in progress", trigger: &fakeTrigger{err: usecase.ErrDrawInProgress}, token: jobToken, status: http.StatusConflict, reason: "drawInProgress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveDrawJob(t, tt.trigger, tt.configs, tt.token, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := errorReason(t, rec); got != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, got)
			}
		})
	}
}

func TestRunDrawJob_TokenNotConfigured(t *testing.T) {
	router := NewRouter(NewHandler(&fakeTrigger{}, nil, nil), nil, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/draw", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestHealthz_ReportsNextDraw(t *testing.T) {
	next := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	router := NewRouter(NewHandler(&fakeTrigger{next: next}, nil, nil), nil, jobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"next_draw_at":"2026-03-10T16:00:00Z"`) {
		t.Fatalf("expected next draw in body, got %s", rec.Body.String())
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(nil, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
