package storyutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence starts on payload line", "```{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n[1,2]\n```  ", "[1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	t.Run("plain object passes through", func(t *testing.T) {
		assert.Equal(t, `{"title":"第一章"}`, ExtractJSONObject(`{"title":"第一章"}`))
	})

	t.Run("strips chatter around object", func(t *testing.T) {
		input := "好的，以下是大纲：\n{\"title\":\"第一章\"}\n希望有帮助。"
		assert.Equal(t, `{"title":"第一章"}`, ExtractJSONObject(input))
	})

	t.Run("strips fence and chatter around array", func(t *testing.T) {
		input := "```json\n[{\"order_index\":1}]\n```"
		assert.Equal(t, `[{"order_index":1}]`, ExtractJSONObject(input))
	})

	t.Run("falls back to raw input when not json", func(t *testing.T) {
		input := "  这不是 JSON  "
		assert.Equal(t, "这不是 JSON", ExtractJSONObject(input))
	})
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	assert.Equal(t, "abc", TruncateByRunes("abc", 5))
	assert.Equal(t, "夜色如", TruncateByRunes("夜色如墨", 3))
	assert.Equal(t, strings.Repeat("a", 4), TruncateByRunes(strings.Repeat("a", 10), 4))
}
