// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"novel-studio-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error
	// GetByID 根据 ID 获取项目，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error
	// Delete 删除项目
	Delete(ctx context.Context, id string) error
	// List 分页获取项目列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Project], error)
	// UpdateWizard 更新向导阶段、步数与项目状态（向导状态只能经此修改）
	UpdateWizard(ctx context.Context, id string, phase entity.WizardPhase, step int, status entity.ProjectStatus) error
	// UpdateWorldSettings 更新世界观设置
	UpdateWorldSettings(ctx context.Context, id string, ws *entity.WorldSettings) error
	// UpdateCurrentWords 重写项目累计字数
	UpdateCurrentWords(ctx context.Context, id string, words int) error
}
