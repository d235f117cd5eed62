package loader

import (
	"strings"
	"unicode/utf8"
)

// By-title partitioning thresholds. A chunk never exceeds maxCharacters,
// a new chunk starts once the current one passes newAfterChars, and a
// section is only allowed to start its own chunk when the current one has
// at least combineUnderChars of text.
const (
	byTitleMaxCharacters = 4000
	byTitleNewAfterChars = 3800
	byTitleCombineUnder  = 2000
)

// combineByTitle combines structural elements into chunks using the
// by-title strategy: title-looking elements open a new chunk unless the
// current chunk is still under the combine threshold, and chunks are
// bounded by the hard and soft size limits above.
func combineByTitle(elements []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	appendElement := func(element string) {
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(element)
	}

	for _, element := range elements {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}

		// Oversized elements are hard-split at the maximum, backing up
		// to a rune boundary so multi-byte text is never cut mid-rune.
		for len(element) > byTitleMaxCharacters {
			cut := byTitleMaxCharacters
			for cut > 0 && !utf8.RuneStart(element[cut]) {
				cut--
			}
			flush()
			chunks = append(chunks, element[:cut])
			element = element[cut:]
		}

		if looksLikeTitle(element) && current.Len() >= byTitleCombineUnder {
			flush()
		}
		if current.Len() > 0 && current.Len()+1+len(element) > byTitleMaxCharacters {
			flush()
		}

		appendElement(element)

		if current.Len() >= byTitleNewAfterChars {
			flush()
		}
	}

	flush()
	return chunks
}

// looksLikeTitle reports whether an element reads as a section heading:
// a single short line without terminal sentence punctuation.
func looksLikeTitle(element string) bool {
	if len(element) > 100 || strings.Contains(element, "\n") {
		return false
	}
	trimmed := strings.TrimRight(element, " ")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ',', ';', ':':
		return false
	}
	return true
}
