package consistency

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	apperrors "novel-studio-api/pkg/errors"
)

type nopTransactor struct{}

func (nopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memOutlineRepo struct {
	outlines map[string]*entity.Outline
}

func (r *memOutlineRepo) Create(_ context.Context, o *entity.Outline) error {
	r.outlines[o.ID] = o
	return nil
}

func (r *memOutlineRepo) CreateBatch(ctx context.Context, outlines []*entity.Outline) error {
	for _, o := range outlines {
		_ = r.Create(ctx, o)
	}
	return nil
}

func (r *memOutlineRepo) GetByID(_ context.Context, id string) (*entity.Outline, error) {
	return r.outlines[id], nil
}

func (r *memOutlineRepo) Update(_ context.Context, o *entity.Outline) error {
	r.outlines[o.ID] = o
	return nil
}

func (r *memOutlineRepo) Delete(_ context.Context, id string) error {
	delete(r.outlines, id)
	return nil
}

func (r *memOutlineRepo) DeleteByProject(_ context.Context, projectID string) error {
	for id, o := range r.outlines {
		if o.ProjectID == projectID {
			delete(r.outlines, id)
		}
	}
	return nil
}

func (r *memOutlineRepo) ListByProject(_ context.Context, projectID string) ([]*entity.Outline, error) {
	var out []*entity.Outline
	for _, o := range r.outlines {
		if o.ProjectID == projectID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *memOutlineRepo) MaxOrderIndex(_ context.Context, projectID string) (int, error) {
	max := 0
	for _, o := range r.outlines {
		if o.ProjectID == projectID && o.OrderIndex > max {
			max = o.OrderIndex
		}
	}
	return max, nil
}

func (r *memOutlineRepo) UpdateOrderIndex(_ context.Context, id string, orderIndex int) error {
	r.outlines[id].OrderIndex = orderIndex
	return nil
}

type memChapterRepo struct {
	chapters  map[string]*entity.Chapter
	createErr error
}

func (r *memChapterRepo) Create(_ context.Context, ch *entity.Chapter) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.chapters[ch.ID] = ch
	return nil
}

func (r *memChapterRepo) CreateBatch(ctx context.Context, chapters []*entity.Chapter) error {
	for _, ch := range chapters {
		_ = r.Create(ctx, ch)
	}
	return nil
}

func (r *memChapterRepo) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	return r.chapters[id], nil
}

func (r *memChapterRepo) GetByOutlineID(_ context.Context, outlineID string) (*entity.Chapter, error) {
	for _, ch := range r.chapters {
		if ch.OutlineID == outlineID {
			return ch, nil
		}
	}
	return nil, nil
}

func (r *memChapterRepo) Update(_ context.Context, ch *entity.Chapter) error {
	r.chapters[ch.ID] = ch
	return nil
}

func (r *memChapterRepo) Delete(_ context.Context, id string) error {
	delete(r.chapters, id)
	return nil
}

func (r *memChapterRepo) DeleteByProject(_ context.Context, projectID string) error {
	for id, ch := range r.chapters {
		if ch.ProjectID == projectID {
			delete(r.chapters, id)
		}
	}
	return nil
}

func (r *memChapterRepo) ListByProject(_ context.Context, projectID string) ([]*entity.Chapter, error) {
	var out []*entity.Chapter
	for _, ch := range r.chapters {
		if ch.ProjectID == projectID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterNumber < out[j].ChapterNumber })
	return out, nil
}

func (r *memChapterRepo) UpdateContent(_ context.Context, id, content string, wordCount int) error {
	ch := r.chapters[id]
	ch.Content = content
	ch.WordCount = wordCount
	return nil
}

func (r *memChapterRepo) UpdateChapterNumber(_ context.Context, id string, chapterNumber int) error {
	r.chapters[id].ChapterNumber = chapterNumber
	return nil
}

func (r *memChapterRepo) SumWordCount(_ context.Context, projectID string) (int, error) {
	total := 0
	for _, ch := range r.chapters {
		if ch.ProjectID == projectID {
			total += ch.WordCount
		}
	}
	return total, nil
}

type memProjectRepo struct {
	projects map[string]*entity.Project
}

func (r *memProjectRepo) Create(_ context.Context, p *entity.Project) error {
	r.projects[p.ID] = p
	return nil
}

func (r *memProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	return r.projects[id], nil
}

func (r *memProjectRepo) Update(_ context.Context, p *entity.Project) error {
	r.projects[p.ID] = p
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, id string) error {
	delete(r.projects, id)
	return nil
}

func (r *memProjectRepo) List(_ context.Context, _ repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

func (r *memProjectRepo) UpdateWizard(_ context.Context, id string, phase entity.WizardPhase, step int, status entity.ProjectStatus) error {
	r.projects[id].WizardPhase = phase
	r.projects[id].WizardStep = step
	r.projects[id].Status = status
	return nil
}

func (r *memProjectRepo) UpdateWorldSettings(_ context.Context, id string, ws *entity.WorldSettings) error {
	r.projects[id].WorldSettings = ws
	return nil
}

func (r *memProjectRepo) UpdateCurrentWords(_ context.Context, id string, words int) error {
	r.projects[id].CurrentWords = words
	return nil
}

type fixture struct {
	guard    *Guard
	outlines *memOutlineRepo
	chapters *memChapterRepo
	projects *memProjectRepo
}

const testProjectID = "proj-1"

// newFixture 造一个含 N 条大纲与配对章节的项目
func newFixture(t *testing.T, chapterCount int) *fixture {
	t.Helper()

	projects := &memProjectRepo{projects: map[string]*entity.Project{}}
	outlines := &memOutlineRepo{outlines: map[string]*entity.Outline{}}
	chapters := &memChapterRepo{chapters: map[string]*entity.Chapter{}}

	project := entity.NewProject("测试项目")
	project.ID = testProjectID
	require.NoError(t, projects.Create(context.Background(), project))

	for i := 1; i <= chapterCount; i++ {
		o := entity.NewOutline(testProjectID, i, "章节标题", "概要")
		require.NoError(t, outlines.Create(context.Background(), o))
		ch := entity.NewChapter(testProjectID, o.ID, i, o.Title)
		require.NoError(t, chapters.Create(context.Background(), ch))
	}

	return &fixture{
		guard:    NewGuard(projects, outlines, chapters, nopTransactor{}, nil, nil),
		outlines: outlines,
		chapters: chapters,
		projects: projects,
	}
}

func (f *fixture) orderedOutlines(t *testing.T) []*entity.Outline {
	t.Helper()
	out, err := f.outlines.ListByProject(context.Background(), testProjectID)
	require.NoError(t, err)
	return out
}

func TestGuardReorder(t *testing.T) {
	f := newFixture(t, 3)
	orig := f.orderedOutlines(t)
	ids := []string{orig[2].ID, orig[0].ID, orig[1].ID}

	result, err := f.guard.Reorder(context.Background(), testProjectID, ids)
	require.NoError(t, err)
	require.Len(t, result.Outlines, 3)

	// 新编号按给出顺序重编为 1..N
	for pos, o := range result.Outlines {
		assert.Equal(t, pos+1, o.OrderIndex)
		assert.Equal(t, ids[pos], o.ID)
	}

	// 配对章节编号同步
	for _, o := range result.Outlines {
		paired, err := f.chapters.GetByOutlineID(context.Background(), o.ID)
		require.NoError(t, err)
		require.NotNil(t, paired)
		assert.Equal(t, o.OrderIndex, paired.ChapterNumber)
	}
}

func TestGuardReorderSwapCounts(t *testing.T) {
	f := newFixture(t, 2)
	orig := f.orderedOutlines(t)

	// 两条互换：两条大纲、两个配对章节均被改写
	result, err := f.guard.Reorder(context.Background(), testProjectID, []string{orig[1].ID, orig[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedOutlines)
	assert.Equal(t, 2, result.UpdatedChapters)

	first, err := f.chapters.GetByOutlineID(context.Background(), orig[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ChapterNumber)
	second, err := f.chapters.GetByOutlineID(context.Background(), orig[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ChapterNumber)

	// 原序重提：一行都不改
	result, err = f.guard.Reorder(context.Background(), testProjectID, []string{orig[1].ID, orig[0].ID})
	require.NoError(t, err)
	assert.Zero(t, result.UpdatedOutlines)
	assert.Zero(t, result.UpdatedChapters)
}

func TestGuardReorderValidation(t *testing.T) {
	f := newFixture(t, 3)
	orig := f.orderedOutlines(t)

	t.Run("length mismatch", func(t *testing.T) {
		_, err := f.guard.Reorder(context.Background(), testProjectID, []string{orig[0].ID})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.guard.Reorder(context.Background(), testProjectID,
			[]string{orig[0].ID, orig[1].ID, "missing"})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeOutlineNotFound))
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := f.guard.Reorder(context.Background(), testProjectID,
			[]string{orig[0].ID, orig[1].ID, orig[1].ID})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
	})
}

func TestGuardDeleteOutlineClosesGap(t *testing.T) {
	f := newFixture(t, 3)
	orig := f.orderedOutlines(t)

	// 给第三章一点字数，验证删除后项目总字数被重算
	third, err := f.chapters.GetByOutlineID(context.Background(), orig[2].ID)
	require.NoError(t, err)
	third.SetContent("第三章的正文内容")

	require.NoError(t, f.guard.DeleteOutline(context.Background(), testProjectID, orig[1].ID))

	remaining := f.orderedOutlines(t)
	require.Len(t, remaining, 2)
	assert.Equal(t, []string{orig[0].ID, orig[2].ID}, []string{remaining[0].ID, remaining[1].ID})
	assert.Equal(t, 1, remaining[0].OrderIndex)
	assert.Equal(t, 2, remaining[1].OrderIndex)

	// 配对章节一并删除，其余章节编号前移
	paired, err := f.chapters.GetByOutlineID(context.Background(), orig[1].ID)
	require.NoError(t, err)
	assert.Nil(t, paired)
	assert.Equal(t, 2, third.ChapterNumber)

	project, err := f.projects.GetByID(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, third.WordCount, project.CurrentWords)
}

func TestGuardDeleteOutlineNotFound(t *testing.T) {
	f := newFixture(t, 1)
	err := f.guard.DeleteOutline(context.Background(), testProjectID, "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOutlineNotFound))
}

func TestGuardEnsureDense(t *testing.T) {
	f := newFixture(t, 3)
	orig := f.orderedOutlines(t)

	// 人为制造缺口 1, 3, 7
	require.NoError(t, f.outlines.UpdateOrderIndex(context.Background(), orig[1].ID, 3))
	require.NoError(t, f.outlines.UpdateOrderIndex(context.Background(), orig[2].ID, 7))

	fixed, err := f.guard.EnsureDense(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed)

	dense := f.orderedOutlines(t)
	for pos, o := range dense {
		assert.Equal(t, pos+1, o.OrderIndex)
	}

	// 再跑一次应无需修复
	fixed, err = f.guard.EnsureDense(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestGuardRecomputeChapterWords(t *testing.T) {
	f := newFixture(t, 1)
	orig := f.orderedOutlines(t)
	ch, err := f.chapters.GetByOutlineID(context.Background(), orig[0].ID)
	require.NoError(t, err)

	// 制造字数漂移
	ch.Content = "一二三四五"
	ch.WordCount = 999

	updated, err := f.guard.RecomputeChapterWords(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.WordCount)

	project, err := f.projects.GetByID(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, 5, project.CurrentWords)
}

func TestGuardCreateOutlinePairsChapter(t *testing.T) {
	f := newFixture(t, 2)

	outline := entity.NewOutline(testProjectID, 0, "新的一章", "概要")
	chapter, err := f.guard.CreateOutline(context.Background(), outline)
	require.NoError(t, err)

	// 编号接在当前最大编号之后，配对章节同号创建
	assert.Equal(t, 3, outline.OrderIndex)
	require.NotNil(t, chapter)
	assert.Equal(t, outline.ID, chapter.OutlineID)
	assert.Equal(t, 3, chapter.ChapterNumber)

	stored, err := f.chapters.GetByOutlineID(context.Background(), outline.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestGuardCreateOutlineChapterFailure(t *testing.T) {
	f := newFixture(t, 1)
	f.chapters.createErr = assert.AnError

	outline := entity.NewOutline(testProjectID, 0, "新的一章", "概要")
	_, err := f.guard.CreateOutline(context.Background(), outline)
	assert.Error(t, err)
}

func TestGuardUpdateChapterContent(t *testing.T) {
	f := newFixture(t, 2)
	orig := f.orderedOutlines(t)
	ch, err := f.chapters.GetByOutlineID(context.Background(), orig[0].ID)
	require.NoError(t, err)

	ch.SetContent("风起于青萍之末。")
	require.NoError(t, f.guard.UpdateChapterContent(context.Background(), ch))

	stored, err := f.chapters.GetByID(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.WordCount)

	// 项目总字数在同一次调用内刷新
	project, err := f.projects.GetByID(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, 8, project.CurrentWords)
}
