package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	apperrors "novel-studio-api/pkg/errors"
)

type fakeProjectRepo struct {
	project         *entity.Project
	wizardWrites    int
	persistedStatus entity.ProjectStatus
}

func (r *fakeProjectRepo) Create(_ context.Context, _ *entity.Project) error { return nil }

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	if r.project != nil && r.project.ID == id {
		return r.project, nil
	}
	return nil, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, _ *entity.Project) error { return nil }
func (r *fakeProjectRepo) Delete(_ context.Context, _ string) error          { return nil }

func (r *fakeProjectRepo) List(_ context.Context, _ repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

func (r *fakeProjectRepo) UpdateWizard(_ context.Context, _ string, phase entity.WizardPhase, step int, status entity.ProjectStatus) error {
	r.project.WizardPhase = phase
	r.project.WizardStep = step
	r.project.Status = status
	r.persistedStatus = status
	r.wizardWrites++
	return nil
}

func (r *fakeProjectRepo) UpdateWorldSettings(_ context.Context, _ string, _ *entity.WorldSettings) error {
	return nil
}

func (r *fakeProjectRepo) UpdateCurrentWords(_ context.Context, _ string, _ int) error { return nil }

func newTestSequencer() (*Sequencer, *fakeProjectRepo) {
	project := entity.NewProject("测试项目")
	project.ID = "proj-1"
	repo := &fakeProjectRepo{project: project}
	return NewSequencer(repo), repo
}

func TestSequencerAdvanceForward(t *testing.T) {
	s, repo := newTestSequencer()
	ctx := context.Background()

	state, err := s.Advance(ctx, "proj-1", entity.WizardPhaseCharacters)
	require.NoError(t, err)
	assert.Equal(t, entity.WizardPhaseCharacters, state.Phase)
	assert.Equal(t, 1, state.Step)
	assert.False(t, state.Completed)

	state, err = s.Advance(ctx, "proj-1", entity.WizardPhaseOutline)
	require.NoError(t, err)
	assert.Equal(t, entity.WizardPhaseOutline, state.Phase)

	state, err = s.Advance(ctx, "proj-1", entity.WizardPhaseCompleted)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	// 状态变更必须随向导写入落库，而非只改内存中的实体
	assert.Equal(t, entity.ProjectStatusWriting, repo.persistedStatus)
	assert.Equal(t, entity.ProjectStatusWriting, repo.project.Status)
}

func TestSequencerAdvanceIdempotent(t *testing.T) {
	s, repo := newTestSequencer()
	ctx := context.Background()

	_, err := s.Advance(ctx, "proj-1", entity.WizardPhaseCharacters)
	require.NoError(t, err)
	writes := repo.wizardWrites

	// 重复提交当前阶段不再落库
	state, err := s.Advance(ctx, "proj-1", entity.WizardPhaseCharacters)
	require.NoError(t, err)
	assert.Equal(t, entity.WizardPhaseCharacters, state.Phase)
	assert.Equal(t, writes, repo.wizardWrites)
}

func TestSequencerAdvanceRejectsRegression(t *testing.T) {
	s, _ := newTestSequencer()
	ctx := context.Background()

	_, err := s.Advance(ctx, "proj-1", entity.WizardPhaseCharacters)
	require.NoError(t, err)

	_, err = s.Advance(ctx, "proj-1", entity.WizardPhaseWorldbuilding)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeWizardRegression))
}

func TestSequencerAdvanceRejectsSkip(t *testing.T) {
	s, _ := newTestSequencer()

	_, err := s.Advance(context.Background(), "proj-1", entity.WizardPhaseOutline)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func TestSequencerAdvanceRejectsUnknownPhase(t *testing.T) {
	s, _ := newTestSequencer()

	_, err := s.Advance(context.Background(), "proj-1", entity.WizardPhase("publishing"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func TestSequencerNextWalksChain(t *testing.T) {
	s, repo := newTestSequencer()
	ctx := context.Background()

	for _, want := range []entity.WizardPhase{
		entity.WizardPhaseCharacters,
		entity.WizardPhaseOutline,
		entity.WizardPhaseCompleted,
	} {
		state, err := s.Next(ctx, "proj-1")
		require.NoError(t, err)
		assert.Equal(t, want, state.Phase)
	}

	// 完成后继续 Next 幂等返回
	state, err := s.Next(ctx, "proj-1")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, 3, repo.project.WizardStep)
}

func TestSequencerProjectNotFound(t *testing.T) {
	s, _ := newTestSequencer()

	_, err := s.Current(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotFound))
}
