package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
	"github.com/mikeboe/knowledge-aggregator/pkg/splitter"
)

// PlaceholderInsights is used when no article produced a summary, so there
// is nothing to synthesize over.
const PlaceholderInsights = "No article summaries were available to generate insights from."

const summarySystemPrompt = `You are a research assistant.
Provide a comprehensive summary of the article content you are given.
Focus on key insights, main arguments, and important facts.
Keep the summary concise but informative.`

const insightsSystemPrompt = `You are a research analyst.
Based on the article summaries you are given, provide key insights and conclusions.
Identify common themes, contradictions, and important takeaways.
Format as bullet points with clear, actionable insights.`

// Summary pairs an extracted article with its condensed text.
type Summary struct {
	Article    scrape.Article `json:"article"`
	Text       string         `json:"summary"`
	ChunkCount int            `json:"chunk_count"`
}

// Summarizer condenses article text through a remote inference model,
// chunking bodies that exceed the configured size. Each inference call is
// at-most-once; failed calls are not retried.
type Summarizer struct {
	llm       llms.Model
	splitter  *splitter.TextSplitter
	chunkSize int
	maxTokens int
	logger    *slog.Logger
}

// New creates a summarizer over the given model.
func New(llm llms.Model, cfg config.Config) *Summarizer {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	maxTokens := cfg.MaxSummaryLength
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Summarizer{
		llm:       llm,
		splitter:  splitter.New(chunkSize),
		chunkSize: chunkSize,
		maxTokens: maxTokens,
		logger:    slog.Default().With("component", "summarizer"),
	}
}

// SummarizeArticle condenses one article. Bodies under the chunk size get a
// single inference call; longer bodies are split, each chunk summarized, and
// the chunk summaries reduced into one final summary.
func (s *Summarizer) SummarizeArticle(ctx context.Context, article scrape.Article, topic string) (Summary, error) {
	text := article.Text
	if len([]rune(text)) <= s.chunkSize {
		prompt := fmt.Sprintf("Topic: %s\nArticle Title: %s\nURL: %s\n\nContent:\n%s\n\nSummary:",
			topic, article.Title, article.URL, text)

		summary, err := s.generate(ctx, summarySystemPrompt, prompt)
		if err != nil {
			return Summary{}, fmt.Errorf("summarize %q: %w", article.Title, err)
		}
		return Summary{Article: article, Text: summary, ChunkCount: 1}, nil
	}

	chunks := s.splitter.Split(text)
	s.logger.Info("summarizing in chunks", "title", article.Title, "chunks", len(chunks))

	chunkSummaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := fmt.Sprintf("Topic: %s\nArticle Title: %s\nPart %d of %d\n\nContent:\n%s\n\nSummary:",
			topic, article.Title, i+1, len(chunks), chunk)

		summary, err := s.generate(ctx, summarySystemPrompt, prompt)
		if err != nil {
			return Summary{}, fmt.Errorf("summarize chunk %d of %q: %w", i+1, article.Title, err)
		}
		chunkSummaries = append(chunkSummaries, summary)
	}

	reducePrompt := fmt.Sprintf("Topic: %s\nArticle Title: %s\n\nThe following are summaries of consecutive parts of one article. Combine them into a single coherent summary:\n\n%s\n\nCombined summary:",
		topic, article.Title, strings.Join(chunkSummaries, "\n\n"))

	combined, err := s.generate(ctx, summarySystemPrompt, reducePrompt)
	if err != nil {
		return Summary{}, fmt.Errorf("combine chunk summaries of %q: %w", article.Title, err)
	}

	return Summary{Article: article, Text: combined, ChunkCount: len(chunks)}, nil
}

// SynthesizeInsights issues one inference call over the full set of
// per-article summaries, producing the cross-article synthesis. With zero
// summaries it returns the placeholder without calling the model.
func (s *Summarizer) SynthesizeInsights(ctx context.Context, topic string, summaries []Summary) (string, error) {
	if len(summaries) == 0 {
		return PlaceholderInsights, nil
	}

	var b strings.Builder
	for _, sum := range summaries {
		fmt.Fprintf(&b, "Article: %s\nSource: %s\nSummary: %s\n\n", sum.Article.Title, sum.Article.URL, sum.Text)
	}

	prompt := fmt.Sprintf("Topic: %s\n\nArticle Summaries:\n%s\nKey Insights:", topic, b.String())

	insights, err := s.generate(ctx, insightsSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("synthesize insights for %q: %w", topic, err)
	}
	return insights, nil
}

func (s *Summarizer) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}, llms.WithTemperature(0.3), llms.WithMaxTokens(s.maxTokens))
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
