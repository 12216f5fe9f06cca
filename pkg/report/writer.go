package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/mikeboe/knowledge-aggregator/pkg/aggregator"
	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/summarize"
)

const documentTmpl = `# Knowledge Aggregator Report

## Topic: {{.Topic}}

**Generated:** {{.GeneratedAt.Format "2006-01-02 15:04:05"}}
**Articles Analyzed:** {{len .ArticleSummaries}}

---
{{if .ArticleSummaries}}
## Table of Contents

{{range $i, $s := .ArticleSummaries}}{{inc $i}}. {{title $s}}
{{end}}
---

## Article Summaries
{{range .ArticleSummaries}}
### {{title .}}

**Source:** {{.Article.URL}}
**Authors:** {{authors .Article.Authors}}
**Published:** {{published .Article.PublishedAt}}
**Extraction Method:** {{.Article.Method}}

{{.Text}}

---
{{end}}{{end}}
## Final Insights

{{.FinalInsights}}

---

## Statistics

- **Results Found:** {{.Stats.Searched}}
- **Articles Extracted:** {{.Stats.Extracted}}
- **Articles Summarized:** {{.Stats.Summarized}}
- **Failures:** {{.Stats.Failed}}
`

// Writer renders topic reports to markdown documents and JSON backups in a
// single output directory. It implements aggregator.ReportWriter.
type Writer struct {
	outputDir string
	logger    *slog.Logger

	// now is replaceable for deterministic filenames in tests.
	now func() time.Time
}

func NewWriter(cfg config.Config) *Writer {
	return &Writer{
		outputDir: cfg.OutputDir,
		logger:    slog.Default().With("component", "report"),
		now:       time.Now,
	}
}

// Slugify converts a topic into a filesystem-safe filename stem. Runs of
// non-alphanumeric characters collapse to a single hyphen.
func Slugify(topic string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 100 {
		slug = strings.TrimSuffix(slug[:100], "-")
	}
	if slug == "" {
		slug = "topic"
	}
	return slug
}

var tmplFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"title": func(s summarize.Summary) string {
		if s.Article.Title != "" {
			return s.Article.Title
		}
		return s.Article.URL
	},
	"authors": func(authors []string) string {
		if len(authors) == 0 {
			return "Unknown"
		}
		return strings.Join(authors, ", ")
	},
	"published": func(t *time.Time) string {
		if t == nil {
			return "Unknown"
		}
		return t.Format("2006-01-02")
	},
}

var documentTemplate = template.Must(template.New("document").Funcs(tmplFuncs).Parse(documentTmpl))

// Render produces the markdown document for a report. It performs no I/O.
func Render(report *aggregator.TopicReport) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("rendering report document: %w", err)
	}
	return buf.String(), nil
}

// Write renders the report and saves the markdown document plus a JSON
// backup of the full report data. Both files share a slugified-topic plus
// timestamp stem. Returns the paths of the two artifacts.
func (w *Writer) Write(report *aggregator.TopicReport) (string, string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	stem := fmt.Sprintf("%s_%s", Slugify(report.Topic), w.now().Format("20060102_150405"))
	docPath := filepath.Join(w.outputDir, stem+".md")
	backupPath := filepath.Join(w.outputDir, stem+"_backup.json")

	document, err := Render(report)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(docPath, []byte(document), 0o644); err != nil {
		return "", "", fmt.Errorf("writing report document: %w", err)
	}

	backup, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding report backup: %w", err)
	}
	if err := os.WriteFile(backupPath, append(backup, '\n'), 0o644); err != nil {
		return "", "", fmt.Errorf("writing report backup: %w", err)
	}

	w.logger.Info("report saved", "document", docPath, "backup", backupPath)
	return docPath, backupPath, nil
}

// QuickSummary formats a short console digest for one completed topic.
func QuickSummary(report *aggregator.TopicReport, docPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTopic: %s\n", report.Topic)
	fmt.Fprintf(&b, "Articles processed: %d of %d found\n", report.Stats.Summarized, report.Stats.Searched)
	fmt.Fprintf(&b, "\nKey insights:\n%s\n", report.FinalInsights)
	if docPath != "" {
		fmt.Fprintf(&b, "\nReport saved to: %s\n", docPath)
	}
	return b.String()
}
