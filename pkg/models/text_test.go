package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t"))
	assert.Equal(t, 3, WordCount("one two three"))
	assert.Equal(t, 2, WordCount("  spaced \n out  "))
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(0))
	assert.Equal(t, 1, ReadingTime(1))
	assert.Equal(t, 1, ReadingTime(200))
	assert.Equal(t, 2, ReadingTime(201))
	assert.Equal(t, 5, ReadingTime(1000))
}

func TestComputeMetadata(t *testing.T) {
	m := ComputeMetadata("hello world")
	assert.Equal(t, 2, m.WordCount)
	assert.Equal(t, 11, m.CharCount)
	assert.Equal(t, 1, m.ReadingTime)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "bold text", StripHTML("<p><b>bold</b>&nbsp;text</p>"))
	assert.Equal(t, `a "b" <c>`, StripHTML(`a &quot;b&quot; &lt;c&gt;`))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "lon...", Truncate("long text", 3))
}

func TestExtractFirstLine(t *testing.T) {
	assert.Equal(t, "first", ExtractFirstLine("first\nsecond"))
}
