package models

import (
	"regexp"
	"strings"
)

// wordsPerMinute is the reading speed used for the reading-time estimate.
const wordsPerMinute = 200

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharCount counts characters (runes), not bytes.
func CharCount(text string) int {
	return len([]rune(text))
}

// ReadingTime estimates reading time in minutes for a word count, rounding up.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + wordsPerMinute - 1) / wordsPerMinute
}

// ComputeMetadata derives note metadata from the plain-text projection.
func ComputeMetadata(plainText string) NoteMetadata {
	wc := WordCount(plainText)
	return NoteMetadata{
		WordCount:   wc,
		CharCount:   CharCount(plainText),
		ReadingTime: ReadingTime(wc),
	}
}

// StripHTML removes tags and unescapes the few entities the editor emits.
// Good enough for deriving a search projection; not a sanitizer.
func StripHTML(html string) string {
	s := htmlTagRe.ReplaceAllString(html, "")
	r := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
	return strings.TrimSpace(r.Replace(s))
}

// Truncate shortens text to at most length runes, appending an ellipsis when
// something was cut.
func Truncate(text string, length int) string {
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	return strings.TrimSpace(string(runes[:length])) + "..."
}

// ExtractFirstLine returns the first line of text, truncated to 100 runes.
func ExtractFirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return Truncate(line, 100)
}
