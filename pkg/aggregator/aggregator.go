package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
	"github.com/mikeboe/knowledge-aggregator/pkg/summarize"
)

// summarizeConcurrency caps parallel per-article inference calls so the
// endpoint's rate limits are respected. Chunk calls within one article
// remain sequential.
const summarizeConcurrency = 3

// Aggregator sequences the four pipeline stages for a topic: search,
// extract, summarize, format. Per-item failures are absorbed into stats;
// only an unrecoverable search error or a report write error fails a topic.
type Aggregator struct {
	searcher   Searcher
	extractor  Extractor
	summarizer Summarizer
	writer     ReportWriter

	maxResults   int
	requestDelay time.Duration
	logger       *slog.Logger

	mu sync.Mutex // guards results accumulation across topics
}

// New wires the pipeline components together.
func New(cfg config.Config, searcher Searcher, extractor Extractor, summarizer Summarizer, writer ReportWriter) *Aggregator {
	return &Aggregator{
		searcher:     searcher,
		extractor:    extractor,
		summarizer:   summarizer,
		writer:       writer,
		maxResults:   cfg.MaxSearchResults,
		requestDelay: cfg.RequestDelay,
		logger:       slog.Default().With("component", "aggregator"),
	}
}

// ProcessTopic runs the full pipeline for one topic. The returned RunResult
// always carries the partially or fully populated report, even on failure.
func (a *Aggregator) ProcessTopic(ctx context.Context, topic string, maxResults int) RunResult {
	if maxResults <= 0 {
		maxResults = a.maxResults
	}

	report := &TopicReport{
		Topic:       topic,
		GeneratedAt: time.Now(),
	}
	log := a.logger.With("topic", topic)

	// Search
	log.Info("starting search phase", "max_results", maxResults)
	results, err := a.searcher.SearchCombined(ctx, topic, maxResults)
	if err != nil {
		log.Error("search failed", "error", err)
		return RunResult{Topic: topic, Status: StatusFailed, Report: report, Err: fmt.Errorf("search: %w", err)}
	}
	report.Stats.Searched = len(results)
	log.Info("search phase finished", "results", len(results))

	// Extract
	log.Info("starting extraction phase")
	var articles []scrape.Article
	for i, result := range results {
		article, err := a.extractor.Extract(ctx, result.URL)
		if err != nil || !article.Success {
			log.Warn("extraction failed, skipping article", "url", result.URL, "error", err)
			report.Stats.Failed++
		} else {
			if article.Title == "" {
				article.Title = result.Title
			}
			articles = append(articles, article)
			report.Stats.Extracted++
		}

		if a.requestDelay > 0 && i < len(results)-1 {
			select {
			case <-time.After(a.requestDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			log.Warn("extraction phase canceled, remaining URLs skipped", "error", ctx.Err())
			break
		}
	}
	log.Info("extraction phase finished", "extracted", report.Stats.Extracted, "failed", report.Stats.Failed)

	// Summarize
	log.Info("starting summarization phase", "articles", len(articles))
	report.ArticleSummaries = a.summarizeAll(ctx, log, topic, articles, &report.Stats)

	// Synthesize
	insights, err := a.summarizer.SynthesizeInsights(ctx, topic, report.ArticleSummaries)
	if err != nil {
		log.Warn("insights synthesis failed", "error", err)
		insights = fmt.Sprintf("Insights generation failed: %v", err)
	}
	report.FinalInsights = insights
	log.Info("summarization phase finished", "summarized", report.Stats.Summarized)

	// Format
	documentPath, backupPath, err := a.writer.Write(report)
	if err != nil {
		log.Error("report writing failed", "error", err)
		return RunResult{Topic: topic, Status: StatusFailed, Report: report, Err: fmt.Errorf("write report: %w", err)}
	}

	log.Info("topic processed", "report", documentPath, "stats", report.Stats)
	return RunResult{
		Topic:      topic,
		Status:     StatusCompleted,
		Report:     report,
		ReportPath: documentPath,
		BackupPath: backupPath,
	}
}

// summarizeAll condenses the extracted articles with a bounded number of
// concurrent inference calls, restoring the original article order.
func (a *Aggregator) summarizeAll(ctx context.Context, log *slog.Logger, topic string, articles []scrape.Article, stats *Stats) []summarize.Summary {
	if len(articles) == 0 {
		return nil
	}

	type outcome struct {
		summary summarize.Summary
		err     error
	}

	outcomes := make([]outcome, len(articles))
	semaphore := make(chan struct{}, summarizeConcurrency)
	var wg sync.WaitGroup

	for i, article := range articles {
		wg.Add(1)
		go func(i int, article scrape.Article) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			summary, err := a.summarizer.SummarizeArticle(ctx, article, topic)
			outcomes[i] = outcome{summary: summary, err: err}
		}(i, article)
	}
	wg.Wait()

	summaries := make([]summarize.Summary, 0, len(articles))
	for i, out := range outcomes {
		if out.err != nil {
			log.Warn("summarization failed, excluding article", "title", articles[i].Title, "error", out.err)
			stats.Failed++
			continue
		}
		summaries = append(summaries, out.summary)
		stats.Summarized++
	}
	return summaries
}

// ProcessTopics runs the single-topic pipeline for each topic in order. A
// failed topic is recorded and does not halt the remaining topics.
func (a *Aggregator) ProcessTopics(ctx context.Context, topics []string, maxResults int) []RunResult {
	a.logger.Info("processing topic list", "count", len(topics))

	var results []RunResult
	for i, topic := range topics {
		a.logger.Info("processing topic", "index", i+1, "total", len(topics), "topic", topic)

		result := a.ProcessTopic(ctx, topic, maxResults)
		if result.Status == StatusFailed {
			a.logger.Error("topic failed", "topic", topic, "error", result.Err, "stats", result.Report.Stats)
		}

		a.mu.Lock()
		results = append(results, result)
		a.mu.Unlock()
	}
	return results
}
