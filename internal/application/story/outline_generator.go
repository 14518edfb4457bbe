package story

import (
	"context"
	"encoding/json"
	"strings"

	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/application/story/storyutil"
	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	"novel-studio-api/internal/workflow/prompt"
	apperrors "novel-studio-api/pkg/errors"
)

// OutlineMode 大纲生成模式
type OutlineMode string

const (
	// OutlineModeAuto 已有大纲则续写，否则全新生成
	OutlineModeAuto OutlineMode = "auto"
	// OutlineModeNew 清空已有大纲与章节后全新生成
	OutlineModeNew OutlineMode = "new"
	// OutlineModeContinue 从最后一章之后续写
	OutlineModeContinue OutlineMode = "continue"
)

// OutlineOptions 大纲生成请求参数
type OutlineOptions struct {
	Mode         OutlineMode
	ChapterCount int
	PlotStage    string
	Provider     string
	Model        string
}

// 单章大纲概要的预估 rune 数，用于进度估算
const outlineSummaryRunes = 150

// OutlineGenerator 章节大纲生成服务
type OutlineGenerator struct {
	projectRepo   repository.ProjectRepository
	outlineRepo   repository.OutlineRepository
	chapterRepo   repository.ChapterRepository
	characterRepo repository.CharacterRepository
	prompts       *prompt.Registry
	transactor    repository.Transactor
	cache         *redis.Cache
	cfg           *config.GenerationConfig
}

// NewOutlineGenerator 创建大纲生成服务
func NewOutlineGenerator(
	projectRepo repository.ProjectRepository,
	outlineRepo repository.OutlineRepository,
	chapterRepo repository.ChapterRepository,
	characterRepo repository.CharacterRepository,
	prompts *prompt.Registry,
	transactor repository.Transactor,
	cache *redis.Cache,
	cfg *config.Config,
) *OutlineGenerator {
	return &OutlineGenerator{
		projectRepo:   projectRepo,
		outlineRepo:   outlineRepo,
		chapterRepo:   chapterRepo,
		characterRepo: characterRepo,
		prompts:       prompts,
		transactor:    transactor,
		cache:         cache,
		cfg:           &cfg.Generation,
	}
}

// NewTask 构造一次大纲生成任务
func (g *OutlineGenerator) NewTask(projectID string, opts OutlineOptions) generation.Task {
	if opts.Mode == "" {
		opts.Mode = OutlineModeAuto
	}
	if opts.ChapterCount <= 0 {
		opts.ChapterCount = 10
	}
	return &outlineTask{gen: g, projectID: projectID, opts: opts}
}

type outlineTask struct {
	gen       *OutlineGenerator
	projectID string
	opts      OutlineOptions

	resolvedMode OutlineMode
	startIndex   int
}

func (t *outlineTask) Kind() entity.RunKind { return entity.RunKindOutline }
func (t *outlineTask) ProjectID() string    { return t.projectID }
func (t *outlineTask) TargetID() string     { return "outline:" + t.projectID }

func (t *outlineTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	project, err := t.gen.projectRepo.GetByID(ctx, t.projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound.Clone().WithDetail("project " + t.projectID)
	}

	outlines, err := t.gen.outlineRepo.ListByProject(ctx, t.projectID)
	if err != nil {
		return nil, err
	}

	t.resolvedMode = t.opts.Mode
	if t.resolvedMode == OutlineModeAuto {
		if len(outlines) > 0 {
			t.resolvedMode = OutlineModeContinue
		} else {
			t.resolvedMode = OutlineModeNew
		}
	}
	if t.resolvedMode == OutlineModeContinue && len(outlines) == 0 {
		t.resolvedMode = OutlineModeNew
	}

	var (
		promptID prompt.PromptID
		vars     map[string]any
	)
	switch t.resolvedMode {
	case OutlineModeNew:
		t.startIndex = 1
		characters, err := t.gen.characterRepo.ListByProject(ctx, t.projectID)
		if err != nil {
			return nil, err
		}
		promptID = prompt.PromptOutlineGenV1
		vars = map[string]any{
			"project_brief":  FormatProjectBrief(project),
			"world_settings": FormatWorldSettings(project.WorldSettings),
			"characters":     FormatCharacters(characters),
			"chapter_count":  t.opts.ChapterCount,
		}
	case OutlineModeContinue:
		maxIndex, err := t.gen.outlineRepo.MaxOrderIndex(ctx, t.projectID)
		if err != nil {
			return nil, err
		}
		t.startIndex = maxIndex + 1

		// 续写只携带最近两章大纲作上下文
		recent := outlines
		if len(recent) > 2 {
			recent = recent[len(recent)-2:]
		}
		promptID = prompt.PromptOutlineContinueV1
		vars = map[string]any{
			"project_brief":   FormatProjectBrief(project),
			"recent_outlines": FormatOutlines(recent),
			"start_index":     t.startIndex,
			"chapter_count":   t.opts.ChapterCount,
			"plot_stage":      normalizePlotStage(t.opts.PlotStage),
		}
	default:
		return nil, apperrors.ErrInvalidParam.Clone().WithDetail("unknown outline mode " + string(t.opts.Mode))
	}

	tpl, err := t.gen.prompts.ChatTemplate(promptID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to load outline prompt")
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to format outline prompt")
	}

	return &llm.StreamRequest{
		Provider:    t.opts.Provider,
		Model:       t.opts.Model,
		Messages:    msgs,
		Temperature: projectTemperature(project),
	}, nil
}

func (t *outlineTask) EstimateTotalRunes() int {
	return t.opts.ChapterCount * outlineSummaryRunes
}

// outlineItem 上游返回的单章大纲
type outlineItem struct {
	OrderIndex int    `json:"order_index"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	PlotStage  string `json:"plot_stage"`
}

// Commit 解析产出并落库
// 模型给出的 order_index 不可信，提交时按 startIndex 起重新连续编号；
// 每条大纲同时建立配对章节（chapter_number 与 order_index 一致）。
func (t *outlineTask) Commit(ctx context.Context, output string) error {
	raw := storyutil.ExtractJSONObject(output)
	var items []outlineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return apperrors.ErrUpstreamProtocol.Clone().WithError(err)
	}
	if len(items) == 0 {
		return apperrors.ErrUpstreamProtocol.Clone().WithDetail("empty outline list")
	}

	outlines := make([]*entity.Outline, 0, len(items))
	chapters := make([]*entity.Chapter, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "未命名章节"
		}
		outline := entity.NewOutline(t.projectID, t.startIndex+i, title, strings.TrimSpace(item.Summary))
		outline.PlotStage = normalizePlotStage(item.PlotStage)
		outlines = append(outlines, outline)
		chapters = append(chapters, entity.NewChapter(t.projectID, outline.ID, outline.OrderIndex, title))
	}

	err := t.gen.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if t.resolvedMode == OutlineModeNew {
			if err := t.gen.chapterRepo.DeleteByProject(txCtx, t.projectID); err != nil {
				return err
			}
			if err := t.gen.outlineRepo.DeleteByProject(txCtx, t.projectID); err != nil {
				return err
			}
			if err := t.gen.projectRepo.UpdateCurrentWords(txCtx, t.projectID, 0); err != nil {
				return err
			}
		}
		if err := t.gen.outlineRepo.CreateBatch(txCtx, outlines); err != nil {
			return err
		}
		return t.gen.chapterRepo.CreateBatch(txCtx, chapters)
	})
	if err != nil {
		return apperrors.ErrPersistFailed.Clone().WithError(err)
	}

	if t.gen.cache != nil {
		_ = t.gen.cache.InvalidateProject(ctx, t.projectID)
	}
	return nil
}

func normalizePlotStage(stage string) string {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "climax":
		return "climax"
	case "ending":
		return "ending"
	default:
		return "development"
	}
}
