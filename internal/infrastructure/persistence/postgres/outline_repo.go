// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"novel-studio-api/internal/domain/entity"
)

// OutlineRepository 大纲仓储实现
type OutlineRepository struct {
	client *Client
}

// NewOutlineRepository 创建大纲仓储
func NewOutlineRepository(client *Client) *OutlineRepository {
	return &OutlineRepository{client: client}
}

// Create 创建大纲条目
func (r *OutlineRepository) Create(ctx context.Context, outline *entity.Outline) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(outline).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create outline: %w", err)
	}
	return nil
}

// CreateBatch 批量创建大纲条目
func (r *OutlineRepository) CreateBatch(ctx context.Context, outlines []*entity.Outline) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.CreateBatch")
	defer span.End()

	if len(outlines) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(&outlines).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create outlines: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取大纲
func (r *OutlineRepository) GetByID(ctx context.Context, id string) (*entity.Outline, error) {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var outline entity.Outline
	if err := db.First(&outline, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get outline: %w", err)
	}
	return &outline, nil
}

// Update 更新大纲
func (r *OutlineRepository) Update(ctx context.Context, outline *entity.Outline) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(outline).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update outline: %w", err)
	}
	return nil
}

// Delete 删除大纲
func (r *OutlineRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Outline{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete outline: %w", err)
	}
	return nil
}

// DeleteByProject 删除项目下全部大纲
func (r *OutlineRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.DeleteByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Outline{}, "project_id = ?", projectID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project outlines: %w", err)
	}
	return nil
}

// ListByProject 按 order_index 升序获取项目大纲
func (r *OutlineRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Outline, error) {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var outlines []*entity.Outline
	if err := db.Where("project_id = ?", projectID).
		Order("order_index ASC").
		Find(&outlines).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list outlines: %w", err)
	}
	return outlines, nil
}

// MaxOrderIndex 项目内最大 order_index
func (r *OutlineRepository) MaxOrderIndex(ctx context.Context, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.MaxOrderIndex")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var maxIndex *int
	err := db.Model(&entity.Outline{}).
		Where("project_id = ?", projectID).
		Select("MAX(order_index)").
		Scan(&maxIndex).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get max order index: %w", err)
	}
	if maxIndex == nil {
		return 0, nil
	}
	return *maxIndex, nil
}

// UpdateOrderIndex 重写单条大纲的 order_index
func (r *OutlineRepository) UpdateOrderIndex(ctx context.Context, id string, orderIndex int) error {
	ctx, span := tracer.Start(ctx, "postgres.OutlineRepository.UpdateOrderIndex")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Outline{}).Where("id = ?", id).
		Update("order_index", orderIndex).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update order index: %w", err)
	}
	return nil
}
