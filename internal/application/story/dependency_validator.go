package story

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
	"novel-studio-api/pkg/metrics"
)

// CheckResult 前置依赖检查结果
type CheckResult struct {
	Allowed          bool  `json:"allowed"`
	BlockingChapters []int `json:"blocking_chapters"`
}

// MissingPrerequisites 返回阻塞目标章节生成的前置章节编号（升序）
// 第 1 章永远没有前置依赖；第 N 章要求第 1..N-1 章全部存在且正文非空（仅空白视为空）。
func MissingPrerequisites(chapters []*entity.Chapter, targetNumber int) []int {
	if targetNumber <= 1 {
		return nil
	}

	filled := make(map[int]bool, len(chapters))
	for _, ch := range chapters {
		if ch == nil {
			continue
		}
		if ch.HasContent() {
			filled[ch.ChapterNumber] = true
		}
	}

	var blocking []int
	for n := 1; n < targetNumber; n++ {
		if !filled[n] {
			blocking = append(blocking, n)
		}
	}
	sort.Ints(blocking)
	return blocking
}

// DependencyValidator 章节生成前置依赖校验器
type DependencyValidator struct {
	chapterRepo repository.ChapterRepository
	cache       *redis.Cache
}

// NewDependencyValidator 创建依赖校验器
func NewDependencyValidator(chapterRepo repository.ChapterRepository, cache *redis.Cache) *DependencyValidator {
	return &DependencyValidator{
		chapterRepo: chapterRepo,
		cache:       cache,
	}
}

// Check 校验项目中目标章节编号是否满足生成条件
func (v *DependencyValidator) Check(ctx context.Context, projectID string, targetNumber int) (*CheckResult, error) {
	chapters, err := v.chapterRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	blocking := MissingPrerequisites(chapters, targetNumber)
	result := &CheckResult{
		Allowed:          len(blocking) == 0,
		BlockingChapters: blocking,
	}
	if result.BlockingChapters == nil {
		result.BlockingChapters = []int{}
	}

	if result.Allowed {
		metrics.DependencyChecksTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.DependencyChecksTotal.WithLabelValues("blocked").Inc()
	}
	return result, nil
}

// CheckChapter 按章节 ID 校验，结果短暂缓存以支撑前端轮询
func (v *DependencyValidator) CheckChapter(ctx context.Context, projectID, chapterID string) (*CheckResult, error) {
	key := redis.CanGenerateKey(projectID, chapterID)
	if v.cache != nil {
		if raw, err := v.cache.Get(ctx, key); err == nil && len(raw) > 0 {
			var cached CheckResult
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return &cached, nil
			}
		}
	}

	chapter, err := v.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound.Clone().WithDetail("chapter " + chapterID)
	}

	result, err := v.Check(ctx, projectID, chapter.ChapterNumber)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		if raw, marshalErr := json.Marshal(result); marshalErr == nil {
			if cacheErr := v.cache.Set(ctx, key, raw, 10*time.Second); cacheErr != nil {
				logger.Warn(ctx, "failed to cache can-generate result", "key", key, "error", cacheErr)
			}
		}
	}
	return result, nil
}
