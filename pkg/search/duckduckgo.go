package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
)

const (
	defaultBaseURL    = "https://html.duckduckgo.com/html/"
	maxErrorBodyBytes = 8 * 1024
)

// SourceType identifies which search vertical produced a result.
type SourceType string

const (
	SourceWeb  SourceType = "web"
	SourceNews SourceType = "news"
)

// Result is a single ranked search hit.
type Result struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Snippet    string     `json:"snippet"`
	SourceType SourceType `json:"source_type"`
}

// APIError reports a non-2xx response from the search provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("duckduckgo returned %d: %s", e.StatusCode, e.Body)
}

// Client queries the DuckDuckGo HTML endpoint. It needs no API key; the
// provider may still rate-limit or return empty pages, which callers must
// treat as a valid zero-result outcome.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a search client from the configuration.
func NewClient(cfg config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    defaultBaseURL,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.SearchTimeout,
		httpClient: httpClient,
		logger:     slog.Default().With("component", "search"),
	}
}

// Search queries the general web vertical.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return c.search(ctx, query, maxResults, SourceWeb)
}

// SearchNews queries the news vertical, limited to the last month.
func (c *Client) SearchNews(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return c.search(ctx, query, maxResults, SourceNews)
}

// SearchCombined merges web and news results for a topic. The web vertical
// gets half the budget and news the remainder; a failure in one vertical is
// logged and absorbed so the other vertical's results still flow through.
// Results are deduplicated by exact URL with web hits ranked ahead of news.
func (c *Client) SearchCombined(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	webBudget := maxResults / 2
	newsBudget := maxResults - webBudget

	var failures []error

	webResults, err := c.Search(ctx, query, webBudget)
	if err != nil {
		c.logger.Warn("web search failed", "query", query, "error", err)
		failures = append(failures, err)
	}

	newsResults, err := c.SearchNews(ctx, query, newsBudget)
	if err != nil {
		c.logger.Warn("news search failed", "query", query, "error", err)
		failures = append(failures, err)
	}

	if len(failures) == 2 {
		return nil, fmt.Errorf("both search verticals failed: %w", failures[0])
	}

	merged := make([]Result, 0, len(webResults)+len(newsResults))
	seen := make(map[string]struct{}, maxResults)
	for _, r := range append(webResults, newsResults...) {
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		merged = append(merged, r)
		if len(merged) >= maxResults {
			break
		}
	}

	c.logger.Info("combined search finished", "query", query, "web", len(webResults), "news", len(newsResults), "merged", len(merged))
	return merged, nil
}

func (c *Client) search(ctx context.Context, query string, maxResults int, source SourceType) ([]Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		return nil, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("q", trimmed)
	params.Set("kl", "wt-wt")
	if source == SourceNews {
		params.Set("iar", "news")
		params.Set("df", "m")
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	results := make([]Result, 0, maxResults)
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		rawURL := resolveResultURL(link.AttrOr("href", ""))
		if rawURL == "" {
			return true
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = rawURL
		}
		snippet := strings.Join(strings.Fields(s.Find(".result__snippet").Text()), " ")

		results = append(results, Result{
			Title:      title,
			URL:        rawURL,
			Snippet:    snippet,
			SourceType: source,
		})
		return len(results) < maxResults
	})

	c.logger.Debug("search vertical finished", "query", trimmed, "source", source, "count", len(results))
	return results, nil
}

// resolveResultURL unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<encoded target>. Plain links pass through.
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	// Query() already decodes the uddg parameter.
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.String()
}
