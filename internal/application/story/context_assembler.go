package story

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"novel-studio-api/internal/application/story/storyutil"
	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
)

// Snapshot 一次生成所依据的项目快照
// 拼装只读取快照，不访问存储，保证同一快照的输出完全一致。
type Snapshot struct {
	Project    *entity.Project
	Characters []*entity.Character
	Outlines   []*entity.Outline
	Chapters   []*entity.Chapter
}

// ContextAssembler 按 rune 预算拼装生成上下文
type ContextAssembler struct {
	cfg *config.GenerationConfig
}

// NewContextAssembler 创建上下文拼装器
func NewContextAssembler(cfg *config.Config) *ContextAssembler {
	return &ContextAssembler{cfg: &cfg.Generation}
}

// ChapterVariables 拼装章节生成的模板变量
// 预算不足时先丢弃最早的前文章节，作品简介与本章大纲永不丢弃。
func (a *ContextAssembler) ChapterVariables(snap *Snapshot, target *entity.Outline, targetWords int) map[string]any {
	brief := FormatProjectBrief(snap.Project)
	world := FormatWorldSettings(projectWorldSettings(snap.Project))
	characters := FormatCharacters(snap.Characters)

	fixed := utf8.RuneCountInString(brief) +
		utf8.RuneCountInString(world) +
		utf8.RuneCountInString(characters) +
		utf8.RuneCountInString(target.Summary)

	remaining := a.cfg.ContextBudgetRunes - fixed
	previous := a.renderPreviousChapters(snap.Chapters, target.OrderIndex, remaining)

	style, pov := writingStyle(snap.Project)
	return map[string]any{
		"project_brief":     brief,
		"world_settings":    world,
		"characters":        characters,
		"previous_chapters": previous,
		"outline":           target.Summary,
		"chapter_number":    target.OrderIndex,
		"chapter_title":     target.Title,
		"target_words":      targetWords,
		"writing_style":     style,
		"pov":               pov,
	}
}

// renderPreviousChapters 渲染前文章节：最近几章全文，更早章节截断
func (a *ContextAssembler) renderPreviousChapters(chapters []*entity.Chapter, targetNumber, budget int) string {
	prior := make([]*entity.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch != nil && ch.ChapterNumber < targetNumber && ch.HasContent() {
			prior = append(prior, ch)
		}
	}
	sort.Slice(prior, func(i, j int) bool {
		return prior[i].ChapterNumber < prior[j].ChapterNumber
	})
	if len(prior) == 0 || budget <= 0 {
		return "（无前文）"
	}

	fullFrom := len(prior) - a.cfg.RecentChaptersFull
	if fullFrom < 0 {
		fullFrom = 0
	}

	sections := make([]string, len(prior))
	for i, ch := range prior {
		content := ch.Content
		if i < fullFrom {
			content = storyutil.TruncateByRunes(content, a.cfg.EarlierChapterRunes)
		}
		sections[i] = fmt.Sprintf("第 %d 章《%s》\n%s", ch.ChapterNumber, ch.Title, content)
	}

	// 超出预算时从最早的章节开始丢弃
	start := 0
	total := 0
	for _, s := range sections {
		total += utf8.RuneCountInString(s)
	}
	for start < len(sections)-1 && total > budget {
		total -= utf8.RuneCountInString(sections[start])
		start++
	}
	joined := strings.Join(sections[start:], "\n\n")
	if utf8.RuneCountInString(joined) > budget {
		joined = storyutil.TruncateByRunes(joined, budget)
	}
	return joined
}

// FormatProjectBrief 渲染作品简介
func FormatProjectBrief(p *entity.Project) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "书名：%s", p.Title)
	if p.Genre != "" {
		fmt.Fprintf(&b, "\n类型：%s", p.Genre)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\n简介：%s", p.Description)
	}
	return b.String()
}

// FormatWorldSettings 渲染世界观设定
func FormatWorldSettings(ws *entity.WorldSettings) string {
	if ws == nil {
		return "（未设定）"
	}
	var parts []string
	if ws.TimePeriod != "" {
		parts = append(parts, "时代背景："+ws.TimePeriod)
	}
	if ws.Location != "" {
		parts = append(parts, "地理环境："+ws.Location)
	}
	if ws.Atmosphere != "" {
		parts = append(parts, "整体氛围："+ws.Atmosphere)
	}
	for i, rule := range ws.Rules {
		parts = append(parts, fmt.Sprintf("规则 %d：%s", i+1, rule))
	}
	if len(parts) == 0 {
		return "（未设定）"
	}
	return strings.Join(parts, "\n")
}

// FormatCharacters 渲染人物设定，按名字排序保证输出稳定
func FormatCharacters(characters []*entity.Character) string {
	if len(characters) == 0 {
		return "（未设定）"
	}
	sorted := make([]*entity.Character, len(characters))
	copy(sorted, characters)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	sections := make([]string, 0, len(sorted))
	for _, c := range sorted {
		var b strings.Builder
		fmt.Fprintf(&b, "%s（%s）", c.Name, c.Role)
		if c.Personality != "" {
			fmt.Fprintf(&b, "\n性格：%s", c.Personality)
		}
		if c.Background != "" {
			fmt.Fprintf(&b, "\n背景：%s", c.Background)
		}
		if c.Relationships != "" {
			fmt.Fprintf(&b, "\n关系：%s", c.Relationships)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// FormatOutlines 渲染章节大纲列表，按 order_index 排序
func FormatOutlines(outlines []*entity.Outline) string {
	if len(outlines) == 0 {
		return "（暂无大纲）"
	}
	sorted := make([]*entity.Outline, len(outlines))
	copy(sorted, outlines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})

	sections := make([]string, 0, len(sorted))
	for _, o := range sorted {
		sections = append(sections, fmt.Sprintf("第 %d 章《%s》：%s", o.OrderIndex, o.Title, o.Summary))
	}
	return strings.Join(sections, "\n")
}

func projectWorldSettings(p *entity.Project) *entity.WorldSettings {
	if p == nil {
		return nil
	}
	return p.WorldSettings
}

func writingStyle(p *entity.Project) (style string, pov string) {
	style = "自然流畅的现代白话"
	pov = "第三人称"
	if p != nil && p.Settings != nil {
		if p.Settings.WritingStyle != "" {
			style = p.Settings.WritingStyle
		}
		if p.Settings.POV != "" {
			pov = p.Settings.POV
		}
	}
	return style, pov
}
