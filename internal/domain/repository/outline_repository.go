// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-studio-api/internal/domain/entity"
)

// OutlineRepository 大纲仓储接口
type OutlineRepository interface {
	// Create 创建大纲条目
	Create(ctx context.Context, outline *entity.Outline) error
	// CreateBatch 批量创建大纲条目
	CreateBatch(ctx context.Context, outlines []*entity.Outline) error
	// GetByID 根据 ID 获取大纲，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Outline, error)
	// Update 更新大纲
	Update(ctx context.Context, outline *entity.Outline) error
	// Delete 删除大纲
	Delete(ctx context.Context, id string) error
	// DeleteByProject 删除项目下全部大纲
	DeleteByProject(ctx context.Context, projectID string) error
	// ListByProject 按 order_index 升序获取项目大纲
	ListByProject(ctx context.Context, projectID string) ([]*entity.Outline, error)
	// MaxOrderIndex 项目内最大 order_index，无记录返回 0
	MaxOrderIndex(ctx context.Context, projectID string) (int, error)
	// UpdateOrderIndex 重写单条大纲的 order_index
	UpdateOrderIndex(ctx context.Context, id string, orderIndex int) error
}
