package aggregator

import (
	"context"
	"time"

	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
	"github.com/mikeboe/knowledge-aggregator/pkg/search"
	"github.com/mikeboe/knowledge-aggregator/pkg/summarize"
)

// Stats counts pipeline outcomes for one topic. Summarized <= Extracted <=
// Searched always holds; Failed counts items absorbed along the way.
type Stats struct {
	Searched   int `json:"searched"`
	Extracted  int `json:"extracted"`
	Summarized int `json:"summarized"`
	Failed     int `json:"failed"`
}

// TopicReport is the terminal aggregate for one processed topic. It is
// created at the start of ProcessTopic, fully populated by pipeline end,
// then handed to the report writer, which derives artifacts without
// mutating it.
type TopicReport struct {
	Topic            string              `json:"topic"`
	GeneratedAt      time.Time           `json:"generated_at"`
	ArticleSummaries []summarize.Summary `json:"article_summaries"`
	FinalInsights    string              `json:"final_insights"`
	Stats            Stats               `json:"stats"`
}

// Status is the terminal state of one topic run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunResult is what ProcessTopic returns for one topic: the report plus the
// artifact paths, or the failure cause.
type RunResult struct {
	Topic      string       `json:"topic"`
	Status     Status       `json:"status"`
	Report     *TopicReport `json:"-"`
	ReportPath string       `json:"report_path,omitempty"`
	BackupPath string       `json:"backup_path,omitempty"`
	Err        error        `json:"-"`
}

// Searcher returns ranked candidate pages for a topic.
type Searcher interface {
	SearchCombined(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// Extractor fetches one page and produces its readable text.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (scrape.Article, error)
}

// Summarizer condenses articles and synthesizes cross-article insights.
type Summarizer interface {
	SummarizeArticle(ctx context.Context, article scrape.Article, topic string) (summarize.Summary, error)
	SynthesizeInsights(ctx context.Context, topic string, summaries []summarize.Summary) (string, error)
}

// ReportWriter persists the document and backup artifacts for a report.
type ReportWriter interface {
	Write(report *TopicReport) (documentPath, backupPath string, err error)
}
