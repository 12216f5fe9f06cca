package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
)

// fakeModel returns canned responses and records the prompts it saw.
type fakeModel struct {
	responses []string
	calls     int
	prompts   []string
	err       error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}

	var prompt strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
				prompt.WriteString("\n")
			}
		}
	}
	f.prompts = append(f.prompts, prompt.String())

	resp := fmt.Sprintf("summary %d", f.calls)
	if f.calls < len(f.responses) {
		resp = f.responses[f.calls]
	}
	f.calls++

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resp}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func testConfig() config.Config {
	return config.Config{ChunkSize: 100, MaxSummaryLength: 500}
}

func article(textLen int) scrape.Article {
	return scrape.Article{
		URL:     "https://example.com/a",
		Title:   "An Article",
		Text:    strings.Repeat("word ", textLen/5),
		Method:  scrape.MethodReadability,
		Success: true,
	}
}

func TestSummarizeShortArticleSingleCall(t *testing.T) {
	model := &fakeModel{responses: []string{"the summary"}}
	s := New(model, testConfig())

	sum, err := s.SummarizeArticle(context.Background(), article(80), "test topic")
	if err != nil {
		t.Fatalf("SummarizeArticle: %v", err)
	}

	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
	if sum.ChunkCount != 1 {
		t.Errorf("ChunkCount = %d, want 1", sum.ChunkCount)
	}
	if sum.Text != "the summary" {
		t.Errorf("Text = %q", sum.Text)
	}
	if !strings.Contains(model.prompts[0], "test topic") {
		t.Error("prompt should include the topic")
	}
	if !strings.Contains(model.prompts[0], "An Article") {
		t.Error("prompt should include the article title")
	}
}

func TestSummarizeLongArticleMapReduce(t *testing.T) {
	model := &fakeModel{}
	s := New(model, testConfig())

	sum, err := s.SummarizeArticle(context.Background(), article(350), "topic")
	if err != nil {
		t.Fatalf("SummarizeArticle: %v", err)
	}

	if sum.ChunkCount < 2 {
		t.Fatalf("ChunkCount = %d, want >= 2 for text above chunk size", sum.ChunkCount)
	}
	// One call per chunk plus one reduce call.
	if model.calls != sum.ChunkCount+1 {
		t.Errorf("model calls = %d, want %d", model.calls, sum.ChunkCount+1)
	}
	reducePrompt := model.prompts[len(model.prompts)-1]
	if !strings.Contains(reducePrompt, "Combine them into a single coherent summary") {
		t.Errorf("last call should be the reduce call, got prompt %q", reducePrompt)
	}
}

func TestSummarizeArticlePropagatesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("401 unauthorized")}
	s := New(model, testConfig())

	_, err := s.SummarizeArticle(context.Background(), article(80), "topic")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the cause, got %v", err)
	}
}

func TestSynthesizeInsights(t *testing.T) {
	model := &fakeModel{responses: []string{"- insight one\n- insight two"}}
	s := New(model, testConfig())

	summaries := []Summary{
		{Article: article(80), Text: "first summary", ChunkCount: 1},
		{Article: article(80), Text: "second summary", ChunkCount: 1},
	}

	insights, err := s.SynthesizeInsights(context.Background(), "topic", summaries)
	if err != nil {
		t.Fatalf("SynthesizeInsights: %v", err)
	}
	if insights != "- insight one\n- insight two" {
		t.Errorf("insights = %q", insights)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want exactly one synthesis call", model.calls)
	}
	if !strings.Contains(model.prompts[0], "first summary") || !strings.Contains(model.prompts[0], "second summary") {
		t.Error("synthesis prompt should contain every article summary")
	}
}

func TestSynthesizeInsightsEmptyUsesPlaceholder(t *testing.T) {
	model := &fakeModel{}
	s := New(model, testConfig())

	insights, err := s.SynthesizeInsights(context.Background(), "topic", nil)
	if err != nil {
		t.Fatalf("SynthesizeInsights: %v", err)
	}
	if insights != PlaceholderInsights {
		t.Errorf("insights = %q, want placeholder", insights)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0 for zero summaries", model.calls)
	}
}
