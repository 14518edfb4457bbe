package story

import (
	"context"
	"strconv"
	"strings"

	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/config"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/infrastructure/persistence/redis"
	"novel-studio-api/internal/workflow/prompt"
	apperrors "novel-studio-api/pkg/errors"
)

// GenerateOptions 一次生成请求的可选覆盖项
type GenerateOptions struct {
	Provider    string
	Model       string
	TargetWords int
}

// ChapterGenerator 章节正文生成服务
type ChapterGenerator struct {
	projectRepo   repository.ProjectRepository
	chapterRepo   repository.ChapterRepository
	outlineRepo   repository.OutlineRepository
	characterRepo repository.CharacterRepository
	validator     *DependencyValidator
	assembler     *ContextAssembler
	prompts       *prompt.Registry
	transactor    repository.Transactor
	cache         *redis.Cache
	cfg           *config.GenerationConfig
}

// NewChapterGenerator 创建章节生成服务
func NewChapterGenerator(
	projectRepo repository.ProjectRepository,
	chapterRepo repository.ChapterRepository,
	outlineRepo repository.OutlineRepository,
	characterRepo repository.CharacterRepository,
	validator *DependencyValidator,
	assembler *ContextAssembler,
	prompts *prompt.Registry,
	transactor repository.Transactor,
	cache *redis.Cache,
	cfg *config.Config,
) *ChapterGenerator {
	return &ChapterGenerator{
		projectRepo:   projectRepo,
		chapterRepo:   chapterRepo,
		outlineRepo:   outlineRepo,
		characterRepo: characterRepo,
		validator:     validator,
		assembler:     assembler,
		prompts:       prompts,
		transactor:    transactor,
		cache:         cache,
		cfg:           &cfg.Generation,
	}
}

// NewTask 构造一次章节生成任务
func (g *ChapterGenerator) NewTask(projectID, chapterID string, opts GenerateOptions) generation.Task {
	return &chapterTask{gen: g, projectID: projectID, chapterID: chapterID, opts: opts}
}

// chapterTask 单次章节生成运行
type chapterTask struct {
	gen       *ChapterGenerator
	projectID string
	chapterID string
	opts      GenerateOptions

	chapter     *entity.Chapter
	project     *entity.Project
	targetWords int
}

func (t *chapterTask) Kind() entity.RunKind { return entity.RunKindChapter }
func (t *chapterTask) ProjectID() string    { return t.projectID }
func (t *chapterTask) TargetID() string     { return t.chapterID }

// BuildRequest 加载快照、校验前置章节并拼装请求
func (t *chapterTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	project, err := t.gen.projectRepo.GetByID(ctx, t.projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound.Clone().WithDetail("project " + t.projectID)
	}

	chapter, err := t.gen.chapterRepo.GetByID(ctx, t.chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil || chapter.ProjectID != t.projectID {
		return nil, apperrors.ErrChapterNotFound.Clone().WithDetail("chapter " + t.chapterID)
	}

	outline, err := t.gen.outlineRepo.GetByID(ctx, chapter.OutlineID)
	if err != nil {
		return nil, err
	}
	if outline == nil {
		return nil, apperrors.ErrOutlineNotFound.Clone().WithDetail("outline " + chapter.OutlineID)
	}

	chapters, err := t.gen.chapterRepo.ListByProject(ctx, t.projectID)
	if err != nil {
		return nil, err
	}
	if blocking := MissingPrerequisites(chapters, chapter.ChapterNumber); len(blocking) > 0 {
		return nil, apperrors.ErrDependencyUnmet.Clone().
			WithDetail(formatBlocking(blocking))
	}

	characters, err := t.gen.characterRepo.ListByProject(ctx, t.projectID)
	if err != nil {
		return nil, err
	}

	t.project = project
	t.chapter = chapter
	t.targetWords = resolveTargetWords(t.opts.TargetWords, project, t.gen.cfg)

	snap := &Snapshot{
		Project:    project,
		Characters: characters,
		Chapters:   chapters,
	}
	vars := t.gen.assembler.ChapterVariables(snap, outline, t.targetWords)

	tpl, err := t.gen.prompts.ChatTemplate(prompt.PromptChapterGenV1)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to load chapter prompt")
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to format chapter prompt")
	}

	return &llm.StreamRequest{
		Provider:    t.opts.Provider,
		Model:       t.opts.Model,
		Messages:    msgs,
		Temperature: projectTemperature(project),
	}, nil
}

// EstimateTotalRunes 目标字数即预估产出 rune 数
func (t *chapterTask) EstimateTotalRunes() int {
	return t.targetWords
}

// Commit 提交正文：更新章节内容与字数，重算项目总字数
func (t *chapterTask) Commit(ctx context.Context, output string) error {
	err := t.gen.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		t.chapter.SetContent(output)
		t.chapter.Status = entity.ChapterStatusDraft
		if err := t.gen.chapterRepo.UpdateContent(txCtx, t.chapter.ID, t.chapter.Content, t.chapter.WordCount); err != nil {
			return err
		}
		total, err := t.gen.chapterRepo.SumWordCount(txCtx, t.projectID)
		if err != nil {
			return err
		}
		return t.gen.projectRepo.UpdateCurrentWords(txCtx, t.projectID, total)
	})
	if err != nil {
		return apperrors.ErrPersistFailed.Clone().WithError(err)
	}

	if t.gen.cache != nil {
		_ = t.gen.cache.InvalidateProject(ctx, t.projectID)
	}
	return nil
}

func resolveTargetWords(requested int, project *entity.Project, cfg *config.GenerationConfig) int {
	if requested > 0 {
		return requested
	}
	if project.Settings != nil && project.Settings.DefaultChapterWords > 0 {
		return project.Settings.DefaultChapterWords
	}
	return cfg.DefaultTargetWords
}

func projectTemperature(project *entity.Project) *float32 {
	if project.Settings == nil || project.Settings.Temperature <= 0 {
		return nil
	}
	temp := float32(project.Settings.Temperature)
	return &temp
}

func formatBlocking(blocking []int) string {
	parts := make([]string, len(blocking))
	for i, n := range blocking {
		parts[i] = strconv.Itoa(n)
	}
	return "blocked by chapters: " + strings.Join(parts, ", ")
}
