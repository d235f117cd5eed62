package loader

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineByTitleEmpty(t *testing.T) {
	assert.Empty(t, combineByTitle(nil))
	assert.Empty(t, combineByTitle([]string{"", "   "}))
}

func TestCombineByTitleCombinesSmallSections(t *testing.T) {
	chunks := combineByTitle([]string{
		"Introduction",
		"A short paragraph.",
		"Background",
		"Another short paragraph.",
	})

	// Everything stays under the combine threshold, so titles do not open
	// new chunks.
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Introduction")
	assert.Contains(t, chunks[0], "Another short paragraph.")
}

func TestCombineByTitleSplitsOnTitleAfterThreshold(t *testing.T) {
	body := strings.Repeat("Some sentence with content. ", 80) // ~2240 chars
	chunks := combineByTitle([]string{
		"First Section",
		body,
		"Second Section",
		"Short tail.",
	})

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "First Section"))
	assert.True(t, strings.HasPrefix(chunks[1], "Second Section"))
}

func TestCombineByTitleNewChunkAfterSoftLimit(t *testing.T) {
	paragraph := strings.Repeat("x", 1000)
	chunks := combineByTitle([]string{paragraph, paragraph, paragraph, paragraph, paragraph})

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), byTitleMaxCharacters)
	}
}

func TestCombineByTitleHardSplitsOversizedElement(t *testing.T) {
	huge := strings.Repeat("y", byTitleMaxCharacters*2+100)
	chunks := combineByTitle([]string{huge})

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], byTitleMaxCharacters)
	assert.Len(t, chunks[1], byTitleMaxCharacters)
	assert.Len(t, chunks[2], 100)
}

func TestCombineByTitleHardSplitKeepsRunesIntact(t *testing.T) {
	// Three-byte runes leave the hard-split offset mid-rune, so the split
	// must back up to a boundary.
	huge := strings.Repeat("日本語", byTitleMaxCharacters/3)
	chunks := combineByTitle([]string{huge})

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk))
		assert.LessOrEqual(t, len(chunk), byTitleMaxCharacters)
	}
	assert.Equal(t, huge, strings.Join(chunks, ""))
}

func TestCombineByTitleNoContentLost(t *testing.T) {
	elements := []string{
		"Title One",
		strings.Repeat("alpha ", 400),
		"Title Two",
		strings.Repeat("beta ", 400),
	}
	chunks := combineByTitle(elements)

	joined := strings.Join(chunks, "\n")
	for _, element := range elements {
		assert.Contains(t, joined, strings.TrimSpace(element))
	}
}

func TestLooksLikeTitle(t *testing.T) {
	tests := []struct {
		element string
		want    bool
	}{
		{element: "Quarterly Results", want: true},
		{element: "1. Overview", want: true},
		{element: "This is a full sentence.", want: false},
		{element: "Is this a question?", want: false},
		{element: "Line one\nLine two", want: false},
		{element: strings.Repeat("long ", 30), want: false},
		{element: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.element, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeTitle(tt.element))
		})
	}
}
