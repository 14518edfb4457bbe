// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-studio-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error
	// CreateBatch 批量创建章节
	CreateBatch(ctx context.Context, chapters []*entity.Chapter) error
	// GetByID 根据 ID 获取章节，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)
	// GetByOutlineID 根据配对大纲获取章节，未找到返回 (nil, nil)
	GetByOutlineID(ctx context.Context, outlineID string) (*entity.Chapter, error)
	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error
	// Delete 删除章节
	Delete(ctx context.Context, id string) error
	// DeleteByProject 删除项目下全部章节
	DeleteByProject(ctx context.Context, projectID string) error
	// ListByProject 按 chapter_number 升序获取项目章节
	ListByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error)
	// UpdateContent 重写章节内容与字数
	UpdateContent(ctx context.Context, id, content string, wordCount int) error
	// UpdateChapterNumber 重写章节序号
	UpdateChapterNumber(ctx context.Context, id string, chapterNumber int) error
	// SumWordCount 项目内章节字数合计
	SumWordCount(ctx context.Context, projectID string) (int, error)
}
