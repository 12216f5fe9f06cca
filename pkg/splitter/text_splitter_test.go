package splitter

import (
	"strings"
	"testing"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	ts := New(100)
	chunks := ts.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("Split() = %v, want single chunk", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	ts := New(100)
	if chunks := ts.Split(""); chunks != nil {
		t.Fatalf("Split(\"\") = %v, want nil", chunks)
	}
}

func TestSplitIsLossless(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
	}{
		{"paragraphs", strings.Repeat("First paragraph here.\n\nSecond paragraph follows.\n\n", 20), 80},
		{"sentences", strings.Repeat("One sentence. Another one. A third here. ", 30), 64},
		{"no boundaries", strings.Repeat("x", 500), 64},
		{"unicode", strings.Repeat("héllo wörld. Ünïcode tèxt. ", 40), 50},
		{"mixed newlines", "a\nb\nc\n" + strings.Repeat("word ", 100) + "\n\ntail", 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := New(tt.size)
			chunks := ts.Split(tt.text)
			if got := Join(chunks); got != tt.text {
				t.Errorf("Join(Split(text)) differs from input:\ngot  %q\nwant %q", got, tt.text)
			}
			for i, c := range chunks {
				if n := len([]rune(c)); n > tt.size {
					t.Errorf("chunk %d has %d runes, want <= %d", i, n, tt.size)
				}
				if c == "" {
					t.Errorf("chunk %d is empty", i)
				}
			}
		})
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	text := "First block of text here.\n\nSecond block of text that continues on for a while."
	ts := New(40)
	chunks := ts.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q", chunks[0])
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	text := "A sentence that takes up room. And then more text that keeps going without breaks at all"
	ts := New(40)
	chunks := ts.Split(text)

	if !strings.HasSuffix(chunks[0], ". ") {
		t.Errorf("first chunk should end at the sentence boundary, got %q", chunks[0])
	}
}

func TestSplitHardCutWhenNoBoundaryInWindow(t *testing.T) {
	text := strings.Repeat("a", 100)
	ts := New(30)
	chunks := ts.Split(text)

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks (30+30+30+10), got %d", len(chunks))
	}
	if len(chunks[0]) != 30 {
		t.Errorf("hard cut chunk length = %d, want 30", len(chunks[0]))
	}
}
