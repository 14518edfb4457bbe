// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"novel-studio-api/internal/domain/entity"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// CreateBatch 批量创建章节
func (r *ChapterRepository) CreateBatch(ctx context.Context, chapters []*entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CreateBatch")
	defer span.End()

	if len(chapters) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(&chapters).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapters: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// GetByOutlineID 根据配对大纲获取章节
func (r *ChapterRepository) GetByOutlineID(ctx context.Context, outlineID string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByOutlineID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "outline_id = ?", outlineID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter by outline: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// Delete 删除章节
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// DeleteByProject 删除项目下全部章节
func (r *ChapterRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.DeleteByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "project_id = ?", projectID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project chapters: %w", err)
	}
	return nil
}

// ListByProject 按 chapter_number 升序获取项目章节
func (r *ChapterRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("project_id = ?", projectID).
		Order("chapter_number ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// UpdateContent 重写章节内容与字数
func (r *ChapterRepository) UpdateContent(ctx context.Context, id, content string, wordCount int) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.UpdateContent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Chapter{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    content,
		"word_count": wordCount,
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter content: %w", err)
	}
	return nil
}

// UpdateChapterNumber 重写章节序号
func (r *ChapterRepository) UpdateChapterNumber(ctx context.Context, id string, chapterNumber int) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.UpdateChapterNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Chapter{}).Where("id = ?", id).
		Update("chapter_number", chapterNumber).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter number: %w", err)
	}
	return nil
}

// SumWordCount 项目内章节字数合计
func (r *ChapterRepository) SumWordCount(ctx context.Context, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.SumWordCount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var sum *int
	err := db.Model(&entity.Chapter{}).
		Where("project_id = ?", projectID).
		Select("SUM(word_count)").
		Scan(&sum).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum word count: %w", err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
