// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-studio-api/internal/domain/entity"
)

// GenerationHistoryRepository 生成历史仓储接口
type GenerationHistoryRepository interface {
	// Create 追加一条生成历史
	Create(ctx context.Context, history *entity.GenerationHistory) error
	// ListByProject 分页获取项目生成历史（按时间倒序）
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.GenerationHistory], error)
}
