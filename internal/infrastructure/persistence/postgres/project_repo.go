// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
)

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	client *Client
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var project entity.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete 删除项目及其下属资源
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Project{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// List 分页获取项目列表
func (r *ProjectRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Project{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []*entity.Project
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&projects).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

// UpdateWizard 更新向导阶段、步数与项目状态
// 完成向导时项目状态随同一条 UPDATE 落库。
func (r *ProjectRepository) UpdateWizard(ctx context.Context, id string, phase entity.WizardPhase, step int, status entity.ProjectStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateWizard")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Project{}).Where("id = ?", id).Updates(map[string]interface{}{
		"wizard_phase": phase,
		"wizard_step":  step,
		"status":       status,
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project wizard: %w", err)
	}
	return nil
}

// UpdateWorldSettings 更新世界观设置
func (r *ProjectRepository) UpdateWorldSettings(ctx context.Context, id string, ws *entity.WorldSettings) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateWorldSettings")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Project{}).Where("id = ?", id).
		Update("world_settings", ws).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update world settings: %w", err)
	}
	return nil
}

// UpdateCurrentWords 重写项目累计字数
func (r *ProjectRepository) UpdateCurrentWords(ctx context.Context, id string, words int) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateCurrentWords")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Project{}).Where("id = ?", id).
		Update("current_words", words).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update current words: %w", err)
	}
	return nil
}
