// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
)

// GenerationHistoryRepository 生成历史仓储实现
type GenerationHistoryRepository struct {
	client *Client
}

// NewGenerationHistoryRepository 创建生成历史仓储
func NewGenerationHistoryRepository(client *Client) *GenerationHistoryRepository {
	return &GenerationHistoryRepository{client: client}
}

// Create 追加一条生成历史
func (r *GenerationHistoryRepository) Create(ctx context.Context, history *entity.GenerationHistory) error {
	ctx, span := tracer.Start(ctx, "postgres.GenerationHistoryRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(history).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create generation history: %w", err)
	}
	return nil
}

// ListByProject 分页获取项目生成历史
func (r *GenerationHistoryRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationHistory], error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationHistoryRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.GenerationHistory{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count generation histories: %w", err)
	}

	var histories []*entity.GenerationHistory
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&histories).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation histories: %w", err)
	}

	return repository.NewPagedResult(histories, total, pagination), nil
}
