package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
)

const maxBodyBytes = 1_500_000

// Method identifies which extraction strategy produced an article.
type Method string

const (
	MethodReadability Method = "readability"
	MethodGoquery     Method = "goquery"
)

// selectors tried in order by the fallback extractor before giving up
// and taking the whole body.
var contentSelectors = []string{
	"article", "main", ".content", ".post-content",
	".entry-content", ".article-content", ".story-body",
}

// Article is the extraction result for one URL. Text may be empty when
// Success is false; Success distinguishes "nothing found" from "found but
// under the content threshold".
type Article struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Authors     []string   `json:"authors,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Text        string     `json:"text"`
	Method      Method     `json:"extraction_method,omitempty"`
	Success     bool       `json:"success"`
}

// Scraper fetches a page once and runs two extraction strategies over the
// body: readability first, a goquery heuristic scrape as fallback.
type Scraper struct {
	timeout    time.Duration
	minContent int
	maxContent int
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewScraper creates a scraper from the configuration.
func NewScraper(cfg config.Config, httpClient *http.Client) *Scraper {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	minContent := cfg.MinContentLength
	if minContent <= 0 {
		minContent = 200
	}
	return &Scraper{
		timeout:    cfg.ScrapingTimeout,
		minContent: minContent,
		maxContent: cfg.MaxContentLength,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     slog.Default().With("component", "scraper"),
	}
}

// Extract fetches pageURL and returns the extracted article. On failure the
// returned Article has Success=false and the error carries the cause; the
// caller decides whether that is fatal. There are no retries beyond the
// primary-to-fallback escalation.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (Article, error) {
	failed := Article{URL: pageURL}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return failed, fmt.Errorf("invalid article url %q", pageURL)
	}

	body, err := s.fetch(ctx, parsed.String())
	if err != nil {
		return failed, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	if article, ok := s.extractReadability(body, parsed); ok {
		s.logger.Debug("extracted with readability", "url", pageURL, "chars", len(article.Text))
		return article, nil
	}

	if article, ok := s.extractGoquery(body, pageURL); ok {
		s.logger.Debug("extracted with goquery fallback", "url", pageURL, "chars", len(article.Text))
		return article, nil
	}

	return failed, fmt.Errorf("no extraction method produced enough content for %s", pageURL)
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (s *Scraper) extractReadability(body []byte, pageURL *url.URL) (Article, bool) {
	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Article{}, false
	}

	text := normalizeText(parsed.TextContent)
	if runeLen(text) < s.minContent {
		return Article{}, false
	}

	article := Article{
		URL:         pageURL.String(),
		Title:       strings.TrimSpace(parsed.Title),
		PublishedAt: parsed.PublishedTime,
		Text:        s.truncate(text),
		Method:      MethodReadability,
		Success:     true,
	}
	if byline := cleanByline(parsed.Byline); byline != "" {
		article.Authors = []string{byline}
	}
	return article, true
}

func (s *Scraper) extractGoquery(body []byte, pageURL string) (Article, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Article{}, false
	}

	doc.Find("script, style, nav, footer, header, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var content *goquery.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			content = found
			break
		}
	}
	if content == nil {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return Article{}, false
	}

	text := normalizeText(content.Text())
	if runeLen(text) < s.minContent {
		return Article{}, false
	}

	return Article{
		URL:     pageURL,
		Title:   title,
		Text:    s.truncate(text),
		Method:  MethodGoquery,
		Success: true,
	}, true
}

func (s *Scraper) truncate(text string) string {
	if s.maxContent <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= s.maxContent {
		return text
	}
	return string(runes[:s.maxContent]) + "..."
}

func normalizeText(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	compact := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		compact = append(compact, strings.Join(fields, " "))
	}
	return strings.Join(compact, "\n")
}

func cleanByline(byline string) string {
	byline = strings.TrimSpace(byline)
	byline = strings.TrimPrefix(byline, "By ")
	byline = strings.TrimPrefix(byline, "by ")
	return strings.TrimSpace(byline)
}

func runeLen(s string) int {
	return len([]rune(s))
}
