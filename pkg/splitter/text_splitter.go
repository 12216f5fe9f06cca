package splitter

import "strings"

// boundary preference order: paragraph break, line break, sentence end, word gap.
var separators = []string{"\n\n", "\n", ". ", " "}

// TextSplitter splits text into chunks of at most chunkSize runes.
// The split is lossless: joining the returned chunks reproduces the input
// exactly, so a cut never drops or normalizes characters.
type TextSplitter struct {
	chunkSize int
}

// New creates a splitter with the given chunk size in runes.
func New(chunkSize int) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	return &TextSplitter{chunkSize: chunkSize}
}

// Split divides text into ordered chunks, preferring paragraph and sentence
// boundaries over hard cuts. A boundary is only used if it falls in the upper
// half of the chunk window, so chunks stay reasonably sized.
func (ts *TextSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= ts.chunkSize {
		return []string{text}
	}

	var chunks []string
	for len(runes) > ts.chunkSize {
		cut := ts.cutIndex(runes)
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// cutIndex returns the index to cut at, keeping the separator with the
// preceding chunk. Falls back to a hard cut at chunkSize.
func (ts *TextSplitter) cutIndex(runes []rune) int {
	minCut := ts.chunkSize / 2

	for _, sep := range separators {
		sepRunes := []rune(sep)
		// Scan backwards for the last occurrence whose end is within the window.
		for end := ts.chunkSize; end-len(sepRunes) >= minCut; end-- {
			start := end - len(sepRunes)
			if string(runes[start:end]) == sep {
				return end
			}
		}
	}

	return ts.chunkSize
}

// Join reassembles chunks produced by Split.
func Join(chunks []string) string {
	return strings.Join(chunks, "")
}
