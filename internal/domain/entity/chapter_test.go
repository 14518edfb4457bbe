package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t  ", 0},
		{"chinese", "夜色如墨。", 5},
		{"chinese with newlines", "第一段。\n\n第二段。", 8},
		{"english ignores spaces", "hello world", 10},
		{"mixed", "他说 hello。", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.content))
		})
	}
}

func TestChapterSetContent(t *testing.T) {
	ch := NewChapter("proj-1", "outline-1", 1, "第一章")
	ch.SetContent("风起于青萍之末。")
	assert.Equal(t, 8, ch.WordCount)
	assert.True(t, ch.HasContent())

	ch.SetContent("   \n ")
	assert.Equal(t, 0, ch.WordCount)
	assert.False(t, ch.HasContent())
}
