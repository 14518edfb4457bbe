package story

import (
	"context"
	"encoding/json"
	"strings"

	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/application/story/storyutil"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	"novel-studio-api/internal/workflow/prompt"
	apperrors "novel-studio-api/pkg/errors"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// 向导生成产出的预估 rune 数
const (
	worldbuildingEstimateRunes = 600
	characterEstimateRunes     = 400
)

// WizardGenerator 创作向导的世界观与角色生成服务
type WizardGenerator struct {
	projectRepo   repository.ProjectRepository
	characterRepo repository.CharacterRepository
	prompts       *prompt.Registry
	transactor    repository.Transactor
	cache         *redis.Cache
}

// NewWizardGenerator 创建向导生成服务
func NewWizardGenerator(
	projectRepo repository.ProjectRepository,
	characterRepo repository.CharacterRepository,
	prompts *prompt.Registry,
	transactor repository.Transactor,
	cache *redis.Cache,
) *WizardGenerator {
	return &WizardGenerator{
		projectRepo:   projectRepo,
		characterRepo: characterRepo,
		prompts:       prompts,
		transactor:    transactor,
		cache:         cache,
	}
}

// NewWorldbuildingTask 构造世界观生成任务
func (g *WizardGenerator) NewWorldbuildingTask(projectID string, opts GenerateOptions) generation.Task {
	return &worldbuildingTask{gen: g, projectID: projectID, opts: opts}
}

// NewCharactersTask 构造角色生成任务
func (g *WizardGenerator) NewCharactersTask(projectID string, characterCount int, opts GenerateOptions) generation.Task {
	if characterCount <= 0 {
		characterCount = 5
	}
	return &charactersTask{gen: g, projectID: projectID, characterCount: characterCount, opts: opts}
}

type worldbuildingTask struct {
	gen       *WizardGenerator
	projectID string
	opts      GenerateOptions
}

func (t *worldbuildingTask) Kind() entity.RunKind { return entity.RunKindWorldbuilding }
func (t *worldbuildingTask) ProjectID() string    { return t.projectID }
func (t *worldbuildingTask) TargetID() string     { return "world:" + t.projectID }

func (t *worldbuildingTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	project, err := loadProject(ctx, t.gen.projectRepo, t.projectID)
	if err != nil {
		return nil, err
	}

	genre := project.Genre
	if genre == "" {
		genre = "未指定"
	}
	vars := map[string]any{
		"project_brief": FormatProjectBrief(project),
		"genre":         genre,
	}
	msgs, err := formatPrompt(ctx, t.gen.prompts, prompt.PromptWorldbuildingV1, vars)
	if err != nil {
		return nil, err
	}
	return &llm.StreamRequest{
		Provider:    t.opts.Provider,
		Model:       t.opts.Model,
		Messages:    msgs,
		Temperature: projectTemperature(project),
	}, nil
}

func (t *worldbuildingTask) EstimateTotalRunes() int {
	return worldbuildingEstimateRunes
}

// Commit 解析世界观 JSON 并写回项目
func (t *worldbuildingTask) Commit(ctx context.Context, output string) error {
	raw := storyutil.ExtractJSONObject(output)
	var ws entity.WorldSettings
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		return apperrors.ErrUpstreamProtocol.Clone().WithError(err)
	}

	if err := t.gen.projectRepo.UpdateWorldSettings(ctx, t.projectID, &ws); err != nil {
		return apperrors.ErrPersistFailed.Clone().WithError(err)
	}
	if t.gen.cache != nil {
		_ = t.gen.cache.InvalidateProject(ctx, t.projectID)
	}
	return nil
}

type charactersTask struct {
	gen            *WizardGenerator
	projectID      string
	characterCount int
	opts           GenerateOptions
}

func (t *charactersTask) Kind() entity.RunKind { return entity.RunKindCharacters }
func (t *charactersTask) ProjectID() string    { return t.projectID }
func (t *charactersTask) TargetID() string     { return "characters:" + t.projectID }

func (t *charactersTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	project, err := loadProject(ctx, t.gen.projectRepo, t.projectID)
	if err != nil {
		return nil, err
	}

	vars := map[string]any{
		"project_brief":   FormatProjectBrief(project),
		"world_settings":  FormatWorldSettings(project.WorldSettings),
		"character_count": t.characterCount,
	}
	msgs, err := formatPrompt(ctx, t.gen.prompts, prompt.PromptCharactersV1, vars)
	if err != nil {
		return nil, err
	}
	return &llm.StreamRequest{
		Provider:    t.opts.Provider,
		Model:       t.opts.Model,
		Messages:    msgs,
		Temperature: projectTemperature(project),
	}, nil
}

func (t *charactersTask) EstimateTotalRunes() int {
	return t.characterCount * characterEstimateRunes
}

// characterItem 上游返回的单个角色
type characterItem struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	Gender        string `json:"gender"`
	Age           string `json:"age"`
	Personality   string `json:"personality"`
	Background    string `json:"background"`
	Relationships string `json:"relationships"`
}

// Commit 解析角色 JSON 并整体替换项目角色
func (t *charactersTask) Commit(ctx context.Context, output string) error {
	raw := storyutil.ExtractJSONObject(output)
	var items []characterItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return apperrors.ErrUpstreamProtocol.Clone().WithError(err)
	}
	if len(items) == 0 {
		return apperrors.ErrUpstreamProtocol.Clone().WithDetail("empty character list")
	}

	characters := make([]*entity.Character, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		characters = append(characters, &entity.Character{
			ID:            uuid.NewString(),
			ProjectID:     t.projectID,
			Name:          name,
			Role:          strings.TrimSpace(item.Role),
			Gender:        strings.TrimSpace(item.Gender),
			Age:           strings.TrimSpace(item.Age),
			Personality:   strings.TrimSpace(item.Personality),
			Background:    strings.TrimSpace(item.Background),
			Relationships: strings.TrimSpace(item.Relationships),
		})
	}
	if len(characters) == 0 {
		return apperrors.ErrUpstreamProtocol.Clone().WithDetail("no usable characters in output")
	}

	err := t.gen.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := t.gen.characterRepo.DeleteByProject(txCtx, t.projectID); err != nil {
			return err
		}
		return t.gen.characterRepo.CreateBatch(txCtx, characters)
	})
	if err != nil {
		return apperrors.ErrPersistFailed.Clone().WithError(err)
	}
	if t.gen.cache != nil {
		_ = t.gen.cache.InvalidateProject(ctx, t.projectID)
	}
	return nil
}

func loadProject(ctx context.Context, repo repository.ProjectRepository, projectID string) (*entity.Project, error) {
	project, err := repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound.Clone().WithDetail("project " + projectID)
	}
	return project, nil
}

func formatPrompt(ctx context.Context, registry *prompt.Registry, id prompt.PromptID, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := registry.ChatTemplate(id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to load prompt "+string(id))
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to format prompt "+string(id))
	}
	return msgs, nil
}
