// Package wizard 实现创作向导的阶段推进
package wizard

import (
	"context"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wizard")

// Sequencer 向导阶段推进器
// 阶段只能沿 worldbuilding -> characters -> outline -> completed 前进，
// 向导状态只经由本服务修改。
type Sequencer struct {
	projectRepo repository.ProjectRepository
}

// NewSequencer 创建向导推进器
func NewSequencer(projectRepo repository.ProjectRepository) *Sequencer {
	return &Sequencer{projectRepo: projectRepo}
}

// State 当前向导状态
type State struct {
	Phase     entity.WizardPhase `json:"phase"`
	Step      int                `json:"step"`
	Completed bool               `json:"completed"`
}

// Current 查询项目向导状态
func (s *Sequencer) Current(ctx context.Context, projectID string) (*State, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return stateOf(project), nil
}

// Advance 推进到指定阶段
// 目标阶段必须是当前阶段的下一阶段；重复提交当前阶段幂等返回。
func (s *Sequencer) Advance(ctx context.Context, projectID string, target entity.WizardPhase) (*State, error) {
	ctx, span := tracer.Start(ctx, "wizard.Sequencer.Advance")
	defer span.End()

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	targetRank := entity.PhaseRank(target)
	if targetRank < 0 {
		return nil, apperrors.ErrInvalidParam.Clone().WithDetail("unknown wizard phase " + string(target))
	}
	currentRank := entity.PhaseRank(project.WizardPhase)

	switch {
	case targetRank == currentRank:
		return stateOf(project), nil
	case targetRank < currentRank:
		return nil, apperrors.ErrWizardRegression.Clone().
			WithDetail("cannot move from " + string(project.WizardPhase) + " back to " + string(target))
	case targetRank > currentRank+1:
		return nil, apperrors.ErrInvalidParam.Clone().
			WithDetail("cannot skip from " + string(project.WizardPhase) + " to " + string(target))
	}

	project.WizardPhase = target
	project.WizardStep++
	if target == entity.WizardPhaseCompleted {
		project.Status = entity.ProjectStatusWriting
	}
	if err := s.projectRepo.UpdateWizard(ctx, projectID, project.WizardPhase, project.WizardStep, project.Status); err != nil {
		return nil, err
	}

	logger.Info(ctx, "wizard phase advanced",
		"project_id", projectID,
		"phase", string(target),
		"step", project.WizardStep,
	)
	return stateOf(project), nil
}

// Next 推进到下一阶段
func (s *Sequencer) Next(ctx context.Context, projectID string) (*State, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	next := nextPhase(project.WizardPhase)
	if next == "" {
		return stateOf(project), nil
	}
	return s.Advance(ctx, projectID, next)
}

func (s *Sequencer) load(ctx context.Context, projectID string) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound.Clone().WithDetail("project " + projectID)
	}
	return project, nil
}

func nextPhase(p entity.WizardPhase) entity.WizardPhase {
	switch p {
	case entity.WizardPhaseWorldbuilding:
		return entity.WizardPhaseCharacters
	case entity.WizardPhaseCharacters:
		return entity.WizardPhaseOutline
	case entity.WizardPhaseOutline:
		return entity.WizardPhaseCompleted
	default:
		return ""
	}
}

func stateOf(p *entity.Project) *State {
	return &State{
		Phase:     p.WizardPhase,
		Step:      p.WizardStep,
		Completed: p.WizardDone(),
	}
}
