// Package storyutil 提供 story 应用层内部共享的工具函数。
package storyutil

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// StripCodeFence 去掉模型输出常见的 Markdown 代码围栏（```json ... ```）。
func StripCodeFence(s string) string {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.Index(raw, "\n"); idx >= 0 {
		// 首行是语言标记（json 等）时整行丢弃
		head := strings.TrimSpace(raw[:idx])
		if head == "" || !strings.ContainsAny(head, "{[") {
			raw = raw[idx+1:]
		}
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// ExtractJSONObject 尝试从一段可能包含"前后缀噪音"的文本中提取顶层 JSON（对象或数组）。
// 约定：若无法确认 JSON 有效性，则回退为原始输入（trim 后）。
func ExtractJSONObject(s string) string {
	raw := StripCodeFence(s)
	if raw == "" {
		return raw
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err == nil {
		if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
			return raw
		}
	}

	dec = json.NewDecoder(strings.NewReader(raw))
	for {
		_, e := dec.Token()
		if e != nil {
			if errors.Is(e, io.EOF) {
				break
			}
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// TruncateByRunes 按 rune 数量截断字符串。
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
