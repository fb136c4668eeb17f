package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	"github.com/riskibarqy/issue-lottery/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultPageSize = 50
	maxPageSize     = 100
	// The search API never returns more than this many results per query.
	searchResultCap = 1000
)

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *logging.Logger
}

// Client lists candidate issues through GitHub's issue search.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

type searchEnvelope struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []searchItem `json:"items"`
}

type searchItem struct {
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	HTMLURL     string        `json:"html_url"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Labels      []searchLabel `json:"labels"`
	PullRequest *struct{}     `json:"pull_request,omitempty"`
}

type searchLabel struct {
	Name string `json:"name"`
}

type errorEnvelope struct {
	Message string `json:"message"`
}

// SearchIssues returns one page of open issues carrying any of the query
// labels, least recently updated first.
func (c *Client) SearchIssues(ctx context.Context, query lottery.CandidateQuery) (lottery.IssuePage, error) {
	if strings.TrimSpace(query.Repository) == "" {
		return lottery.IssuePage{}, crerr.New("repository is required")
	}
	page := max(query.Page, 1)
	perPage := query.PerPage
	if perPage < 1 {
		perPage = defaultPageSize
	}
	perPage = min(perPage, maxPageSize)

	params := url.Values{}
	params.Set("q", buildSearchQuery(query))
	params.Set("sort", "updated")
	params.Set("order", "asc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	fullURL := c.baseURL + "/search/issues?" + params.Encode()

	raw, err := c.get(ctx, fullURL)
	if err != nil {
		return lottery.IssuePage{}, fmt.Errorf("search issues repo=%s page=%d: %w", query.Repository, page, err)
	}

	var envelope searchEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return lottery.IssuePage{}, crerr.Wrap(err, "decode search response")
	}

	items := make([]lottery.Issue, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		if item.PullRequest != nil {
			continue
		}
		labels := make([]string, 0, len(item.Labels))
		for _, l := range item.Labels {
			labels = append(labels, l.Name)
		}
		items = append(items, lottery.Issue{
			Number:    item.Number,
			Title:     item.Title,
			URL:       item.HTMLURL,
			Labels:    labels,
			UpdatedAt: item.UpdatedAt,
		})
	}

	reachable := min(envelope.TotalCount, searchResultCap)
	return lottery.IssuePage{
		Items:   items,
		HasMore: len(envelope.Items) > 0 && page*perPage < reachable,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, crerr.Wrap(err, "wait for request slot")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
	if err != nil {
		return nil, crerr.Wrap(err, "read response body")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	if isSecondaryRateLimit(resp, raw) {
		c.logger.WarnContext(ctx, "github secondary rate limit",
			"status", resp.StatusCode,
			"retry_after", resp.Header.Get("Retry-After"),
		)
		return nil, fmt.Errorf("%w: github status=%d body=%s", resilience.ErrSecondaryRateLimit, resp.StatusCode, abbreviateBody(raw))
	}
	return nil, crerr.Newf("github status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
}

func isSecondaryRateLimit(resp *http.Response, body []byte) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	var envelope errorEnvelope
	if err := sonic.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return strings.Contains(strings.ToLower(envelope.Message), "secondary rate limit")
	}
	return bytes.Contains(bytes.ToLower(body), []byte("secondary rate limit"))
}

// buildSearchQuery renders e.g. repo:o/r is:issue is:open label:"a","b" updated:<=2026-01-02T03:04:05Z.
func buildSearchQuery(query lottery.CandidateQuery) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("repo:")
	_, _ = buf.WriteString(strings.TrimSpace(query.Repository))
	_, _ = buf.WriteString(" is:issue is:open")

	written := 0
	for _, label := range query.Labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if written == 0 {
			_, _ = buf.WriteString(" label:")
		} else {
			_ = buf.WriteByte(',')
		}
		_ = buf.WriteByte('"')
		_, _ = buf.WriteString(strings.ReplaceAll(label, `"`, `\"`))
		_ = buf.WriteByte('"')
		written++
	}

	if !query.UpdatedBefore.IsZero() {
		_, _ = buf.WriteString(" updated:<=")
		_, _ = buf.WriteString(query.UpdatedBefore.UTC().Format(time.RFC3339))
	}
	return buf.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
