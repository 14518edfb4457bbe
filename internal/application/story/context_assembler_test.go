package story

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
)

func assemblerWith(gen config.GenerationConfig) *ContextAssembler {
	cfg := &config.Config{Generation: gen}
	return NewContextAssembler(cfg)
}

func testSnapshot() *Snapshot {
	project := entity.NewProject("沧海遗珠")
	project.Genre = "仙侠"
	project.Description = "少年自东海出，执剑问长生。"

	ch1 := entity.NewChapter("proj-1", "o1", 1, "出东海")
	ch1.SetContent(strings.Repeat("潮", 300))
	ch2 := entity.NewChapter("proj-1", "o2", 2, "入山门")
	ch2.SetContent(strings.Repeat("山", 300))
	ch3 := entity.NewChapter("proj-1", "o3", 3, "初试剑")
	ch3.SetContent(strings.Repeat("剑", 300))

	return &Snapshot{
		Project: project,
		Characters: []*entity.Character{
			{ID: "c2", Name: "白小楼", Role: "主角", Personality: "外冷内热"},
			{ID: "c1", Name: "沈无咎", Role: "师尊", Background: "剑宗掌门"},
		},
		Chapters: []*entity.Chapter{ch1, ch2, ch3},
	}
}

func TestChapterVariablesDeterministic(t *testing.T) {
	a := assemblerWith(config.GenerationConfig{
		ContextBudgetRunes:  24000,
		RecentChaptersFull:  3,
		EarlierChapterRunes: 200,
	})
	snap := testSnapshot()
	target := &entity.Outline{OrderIndex: 4, Title: "下山", Summary: "白小楼奉命下山历练。"}

	first := a.ChapterVariables(snap, target, 2000)
	second := a.ChapterVariables(snap, target, 2000)
	assert.Equal(t, first, second, "same snapshot must yield identical variables")

	assert.Equal(t, 4, first["chapter_number"])
	assert.Equal(t, "下山", first["chapter_title"])
	assert.Equal(t, 2000, first["target_words"])
	assert.Equal(t, target.Summary, first["outline"])
}

func TestChapterVariablesRecentChaptersFull(t *testing.T) {
	a := assemblerWith(config.GenerationConfig{
		ContextBudgetRunes:  24000,
		RecentChaptersFull:  2,
		EarlierChapterRunes: 50,
	})
	snap := testSnapshot()
	target := &entity.Outline{OrderIndex: 4, Title: "下山", Summary: "下山。"}

	previous := a.ChapterVariables(snap, target, 2000)["previous_chapters"].(string)

	// 最近两章保留全文，第一章被截断
	assert.Contains(t, previous, strings.Repeat("山", 300))
	assert.Contains(t, previous, strings.Repeat("剑", 300))
	assert.Contains(t, previous, strings.Repeat("潮", 50))
	assert.NotContains(t, previous, strings.Repeat("潮", 51))
}

func TestChapterVariablesBudgetEvictsOldestFirst(t *testing.T) {
	a := assemblerWith(config.GenerationConfig{
		// 预算只够容纳最近一章左右
		ContextBudgetRunes:  500,
		RecentChaptersFull:  3,
		EarlierChapterRunes: 200,
	})
	snap := testSnapshot()
	target := &entity.Outline{OrderIndex: 4, Title: "下山", Summary: "下山。"}

	previous := a.ChapterVariables(snap, target, 2000)["previous_chapters"].(string)

	assert.Contains(t, previous, "第 3 章")
	assert.NotContains(t, previous, "第 1 章")
	assert.LessOrEqual(t, utf8.RuneCountInString(previous), 500)
}

func TestChapterVariablesNoPriorChapters(t *testing.T) {
	a := assemblerWith(config.GenerationConfig{
		ContextBudgetRunes:  24000,
		RecentChaptersFull:  3,
		EarlierChapterRunes: 200,
	})
	snap := testSnapshot()
	target := &entity.Outline{OrderIndex: 1, Title: "出东海", Summary: "开篇。"}

	previous := a.ChapterVariables(snap, target, 2000)["previous_chapters"].(string)
	assert.Equal(t, "（无前文）", previous)
}

func TestFormatCharactersSortedByName(t *testing.T) {
	snap := testSnapshot()
	out := FormatCharacters(snap.Characters)

	require.Contains(t, out, "白小楼")
	require.Contains(t, out, "沈无咎")
	assert.Less(t, strings.Index(out, "沈无咎"), strings.Index(out, "白小楼"),
		"characters render in name order")

	assert.Equal(t, "（未设定）", FormatCharacters(nil))
}

func TestFormatOutlinesSortedByOrderIndex(t *testing.T) {
	out := FormatOutlines([]*entity.Outline{
		{OrderIndex: 2, Title: "入山门", Summary: "拜师。"},
		{OrderIndex: 1, Title: "出东海", Summary: "启程。"},
	})
	assert.Less(t, strings.Index(out, "出东海"), strings.Index(out, "入山门"))
}
