// Package consistency 维护大纲与章节之间的结构不变量
package consistency

import (
	"context"
	"fmt"
	"sort"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/messaging"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
	"novel-studio-api/pkg/metrics"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("consistency")

// Guard 结构一致性守卫
// 不变量：项目内大纲 order_index 恒为 1..N 连续；配对章节的
// chapter_number 与大纲 order_index 一致；项目 current_words 恒等于
// 全部章节 word_count 之和。所有修复在单个事务内完成。
type Guard struct {
	projectRepo repository.ProjectRepository
	outlineRepo repository.OutlineRepository
	chapterRepo repository.ChapterRepository
	transactor  repository.Transactor
	producer    *messaging.Producer
	cache       *redis.Cache
}

// NewGuard 创建一致性守卫
func NewGuard(
	projectRepo repository.ProjectRepository,
	outlineRepo repository.OutlineRepository,
	chapterRepo repository.ChapterRepository,
	transactor repository.Transactor,
	producer *messaging.Producer,
	cache *redis.Cache,
) *Guard {
	return &Guard{
		projectRepo: projectRepo,
		outlineRepo: outlineRepo,
		chapterRepo: chapterRepo,
		transactor:  transactor,
		producer:    producer,
		cache:       cache,
	}
}

// ReorderResult 重排后的大纲与实际触及的行数
type ReorderResult struct {
	Outlines        []*entity.Outline
	UpdatedOutlines int
	UpdatedChapters int
}

// Reorder 按调用方给出的 ID 顺序重排大纲
// 只信任顺序本身：新 order_index 一律按位置重编为 1..N，
// 配对章节的 chapter_number 同步更新。
func (g *Guard) Reorder(ctx context.Context, projectID string, orderedIDs []string) (*ReorderResult, error) {
	ctx, span := tracer.Start(ctx, "consistency.Guard.Reorder")
	defer span.End()

	outlines, err := g.outlineRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(orderedIDs) != len(outlines) {
		return nil, apperrors.ErrInvalidParam.Clone().
			WithDetail(fmt.Sprintf("expected %d outline ids, got %d", len(outlines), len(orderedIDs)))
	}

	byID := make(map[string]*entity.Outline, len(outlines))
	for _, o := range outlines {
		byID[o.ID] = o
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if byID[id] == nil {
			return nil, apperrors.ErrOutlineNotFound.Clone().WithDetail("outline " + id)
		}
		if seen[id] {
			return nil, apperrors.ErrInvalidParam.Clone().WithDetail("duplicate outline id " + id)
		}
		seen[id] = true
	}

	result := &ReorderResult{Outlines: make([]*entity.Outline, 0, len(orderedIDs))}
	err = g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		for pos, id := range orderedIDs {
			outline := byID[id]
			newIndex := pos + 1
			if outline.OrderIndex != newIndex {
				if err := g.outlineRepo.UpdateOrderIndex(txCtx, id, newIndex); err != nil {
					return err
				}
				synced, err := g.syncPairedChapter(txCtx, id, newIndex)
				if err != nil {
					return err
				}
				if synced {
					result.UpdatedChapters++
				}
				result.UpdatedOutlines++
				outline.OrderIndex = newIndex
			}
			result.Outlines = append(result.Outlines, outline)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ConsistencyFixesTotal.WithLabelValues("reorder").Inc()
	g.publishFix(ctx, projectID, "reorder", orderedIDs)
	g.invalidate(ctx, projectID)
	return result, nil
}

// CreateOutline 追加大纲条目并在同一事务内创建配对章节
// order_index 接在当前最大编号之后；1:1 配对不允许出现无章节的大纲。
func (g *Guard) CreateOutline(ctx context.Context, outline *entity.Outline) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "consistency.Guard.CreateOutline")
	defer span.End()

	var chapter *entity.Chapter
	err := g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		maxIndex, err := g.outlineRepo.MaxOrderIndex(txCtx, outline.ProjectID)
		if err != nil {
			return err
		}
		outline.OrderIndex = maxIndex + 1
		if err := g.outlineRepo.Create(txCtx, outline); err != nil {
			return err
		}
		chapter = entity.NewChapter(outline.ProjectID, outline.ID, outline.OrderIndex, outline.Title)
		return g.chapterRepo.Create(txCtx, chapter)
	})
	if err != nil {
		return nil, err
	}
	g.invalidate(ctx, outline.ProjectID)
	return chapter, nil
}

// UpdateChapterContent 持久化章节并在同一事务内刷新项目总字数
// 内容写入与聚合字数重算之间不允许出现可见的中间状态。
func (g *Guard) UpdateChapterContent(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "consistency.Guard.UpdateChapterContent")
	defer span.End()

	err := g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := g.chapterRepo.Update(txCtx, chapter); err != nil {
			return err
		}
		return g.recomputeProjectWordsTx(txCtx, chapter.ProjectID)
	})
	if err != nil {
		return err
	}
	g.invalidate(ctx, chapter.ProjectID)
	return nil
}

// DeleteOutline 删除大纲及其配对章节并收拢编号缺口
func (g *Guard) DeleteOutline(ctx context.Context, projectID, outlineID string) error {
	ctx, span := tracer.Start(ctx, "consistency.Guard.DeleteOutline")
	defer span.End()

	outline, err := g.outlineRepo.GetByID(ctx, outlineID)
	if err != nil {
		return err
	}
	if outline == nil || outline.ProjectID != projectID {
		return apperrors.ErrOutlineNotFound.Clone().WithDetail("outline " + outlineID)
	}

	err = g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		paired, err := g.chapterRepo.GetByOutlineID(txCtx, outlineID)
		if err != nil {
			return err
		}
		if paired != nil {
			if err := g.chapterRepo.Delete(txCtx, paired.ID); err != nil {
				return err
			}
		}
		if err := g.outlineRepo.Delete(txCtx, outlineID); err != nil {
			return err
		}

		// 收拢缺口：后续大纲与章节编号整体前移
		remaining, err := g.outlineRepo.ListByProject(txCtx, projectID)
		if err != nil {
			return err
		}
		for _, o := range remaining {
			if o.OrderIndex <= outline.OrderIndex {
				continue
			}
			newIndex := o.OrderIndex - 1
			if err := g.outlineRepo.UpdateOrderIndex(txCtx, o.ID, newIndex); err != nil {
				return err
			}
			if _, err := g.syncPairedChapter(txCtx, o.ID, newIndex); err != nil {
				return err
			}
		}

		return g.recomputeProjectWordsTx(txCtx, projectID)
	})
	if err != nil {
		return err
	}

	metrics.ConsistencyFixesTotal.WithLabelValues("delete_gap").Inc()
	g.publishFix(ctx, projectID, "delete_gap", []string{outlineID})
	g.invalidate(ctx, projectID)
	return nil
}

// EnsureDense 校验并修复 order_index 连续性
// 按既有顺序（order_index，相同则按创建时间）重编为 1..N。
func (g *Guard) EnsureDense(ctx context.Context, projectID string) (fixed int, err error) {
	ctx, span := tracer.Start(ctx, "consistency.Guard.EnsureDense")
	defer span.End()

	err = g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		outlines, err := g.outlineRepo.ListByProject(txCtx, projectID)
		if err != nil {
			return err
		}
		sort.SliceStable(outlines, func(i, j int) bool {
			if outlines[i].OrderIndex != outlines[j].OrderIndex {
				return outlines[i].OrderIndex < outlines[j].OrderIndex
			}
			return outlines[i].CreatedAt.Before(outlines[j].CreatedAt)
		})
		for pos, o := range outlines {
			newIndex := pos + 1
			if o.OrderIndex == newIndex {
				continue
			}
			if err := g.outlineRepo.UpdateOrderIndex(txCtx, o.ID, newIndex); err != nil {
				return err
			}
			if _, err := g.syncPairedChapter(txCtx, o.ID, newIndex); err != nil {
				return err
			}
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if fixed > 0 {
		metrics.ConsistencyFixesTotal.WithLabelValues("densify").Inc()
		g.publishFix(ctx, projectID, "densify", nil)
		g.invalidate(ctx, projectID)
	}
	return fixed, nil
}

// RecomputeChapterWords 重算章节字数，有漂移时写回
func (g *Guard) RecomputeChapterWords(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "consistency.Guard.RecomputeChapterWords")
	defer span.End()

	chapter, err := g.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound.Clone().WithDetail("chapter " + chapterID)
	}

	actual := entity.CountWords(chapter.Content)
	if actual == chapter.WordCount {
		return chapter, nil
	}
	err = g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := g.chapterRepo.UpdateContent(txCtx, chapter.ID, chapter.Content, actual); err != nil {
			return err
		}
		return g.recomputeProjectWordsTx(txCtx, chapter.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	chapter.WordCount = actual

	metrics.ConsistencyFixesTotal.WithLabelValues("word_count").Inc()
	g.invalidate(ctx, chapter.ProjectID)
	return chapter, nil
}

// RecomputeProjectWords 以章节字数之和刷新项目总字数
func (g *Guard) RecomputeProjectWords(ctx context.Context, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "consistency.Guard.RecomputeProjectWords")
	defer span.End()

	var total int
	err := g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		total, err = g.chapterRepo.SumWordCount(txCtx, projectID)
		if err != nil {
			return err
		}
		return g.projectRepo.UpdateCurrentWords(txCtx, projectID, total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (g *Guard) recomputeProjectWordsTx(txCtx context.Context, projectID string) error {
	total, err := g.chapterRepo.SumWordCount(txCtx, projectID)
	if err != nil {
		return err
	}
	return g.projectRepo.UpdateCurrentWords(txCtx, projectID, total)
}

func (g *Guard) syncPairedChapter(txCtx context.Context, outlineID string, newIndex int) (bool, error) {
	paired, err := g.chapterRepo.GetByOutlineID(txCtx, outlineID)
	if err != nil {
		return false, err
	}
	if paired == nil || paired.ChapterNumber == newIndex {
		return false, nil
	}
	if err := g.chapterRepo.UpdateChapterNumber(txCtx, paired.ID, newIndex); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Guard) publishFix(ctx context.Context, projectID, kind string, affected []string) {
	if g.producer == nil {
		return
	}
	msg := &messaging.ConsistencyFixMessage{
		ProjectID: projectID,
		Kind:      kind,
		Affected:  affected,
	}
	if err := g.producer.PublishConsistencyFix(ctx, msg); err != nil {
		logger.Warn(ctx, "failed to publish consistency fix", "project_id", projectID, "kind", kind, "error", err)
	}
}

func (g *Guard) invalidate(ctx context.Context, projectID string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.InvalidateProject(ctx, projectID); err != nil {
		logger.Warn(ctx, "failed to invalidate project cache", "project_id", projectID, "error", err)
	}
}
