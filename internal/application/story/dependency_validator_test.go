package story

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"novel-studio-api/internal/domain/entity"
)

func chapterWith(number int, content string) *entity.Chapter {
	ch := entity.NewChapter("proj-1", "outline-"+string(rune('0'+number)), number, "章节")
	ch.SetContent(content)
	return ch
}

func TestMissingPrerequisites(t *testing.T) {
	t.Run("chapter one never has prerequisites", func(t *testing.T) {
		assert.Nil(t, MissingPrerequisites(nil, 1))
		assert.Nil(t, MissingPrerequisites([]*entity.Chapter{chapterWith(1, "")}, 1))
	})

	t.Run("all prior chapters filled", func(t *testing.T) {
		chapters := []*entity.Chapter{
			chapterWith(1, "第一章正文"),
			chapterWith(2, "第二章正文"),
		}
		assert.Empty(t, MissingPrerequisites(chapters, 3))
	})

	t.Run("empty chapter blocks", func(t *testing.T) {
		chapters := []*entity.Chapter{
			chapterWith(1, "A"),
			chapterWith(2, ""),
			chapterWith(3, ""),
		}
		assert.Equal(t, []int{2}, MissingPrerequisites(chapters, 3))
	})

	t.Run("whitespace only counts as empty", func(t *testing.T) {
		chapters := []*entity.Chapter{
			chapterWith(1, "  \n\t "),
		}
		assert.Equal(t, []int{1}, MissingPrerequisites(chapters, 2))
	})

	t.Run("missing rows block too", func(t *testing.T) {
		chapters := []*entity.Chapter{
			chapterWith(3, "第三章正文"),
		}
		assert.Equal(t, []int{1, 2}, MissingPrerequisites(chapters, 4))
	})

	t.Run("blocking list is sorted ascending", func(t *testing.T) {
		chapters := []*entity.Chapter{
			chapterWith(4, ""),
			chapterWith(2, "有内容"),
			chapterWith(1, ""),
			chapterWith(3, ""),
		}
		assert.Equal(t, []int{1, 3, 4}, MissingPrerequisites(chapters, 5))
	})
}
