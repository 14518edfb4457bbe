package story

import (
	"context"
	"unicode/utf8"

	"novel-studio-api/internal/application/generation"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/infrastructure/llm"
	"novel-studio-api/internal/workflow/prompt"
	apperrors "novel-studio-api/pkg/errors"

	"github.com/google/uuid"
)

// PolishOptions 润色请求参数
// ChapterID 与 Content 二选一：给定 ChapterID 时润色该章正文。
type PolishOptions struct {
	ChapterID   string
	Content     string
	Instruction string
	Provider    string
	Model       string
}

// PolishGenerator 文本润色服务
// 润色结果只通过事件流返回，不落库，由用户决定是否采纳。
type PolishGenerator struct {
	projectRepo repository.ProjectRepository
	chapterRepo repository.ChapterRepository
	prompts     *prompt.Registry
}

// NewPolishGenerator 创建润色服务
func NewPolishGenerator(
	projectRepo repository.ProjectRepository,
	chapterRepo repository.ChapterRepository,
	prompts *prompt.Registry,
) *PolishGenerator {
	return &PolishGenerator{
		projectRepo: projectRepo,
		chapterRepo: chapterRepo,
		prompts:     prompts,
	}
}

// NewTask 构造一次润色任务
func (g *PolishGenerator) NewTask(projectID string, opts PolishOptions) generation.Task {
	targetID := "polish:" + opts.ChapterID
	if opts.ChapterID == "" {
		// 临时文本润色互不冲突
		targetID = "polish:" + uuid.NewString()
	}
	return &polishTask{gen: g, projectID: projectID, opts: opts, targetID: targetID}
}

type polishTask struct {
	gen       *PolishGenerator
	projectID string
	targetID  string
	opts      PolishOptions

	sourceRunes int
}

func (t *polishTask) Kind() entity.RunKind { return entity.RunKindPolish }
func (t *polishTask) ProjectID() string    { return t.projectID }
func (t *polishTask) TargetID() string     { return t.targetID }

func (t *polishTask) BuildRequest(ctx context.Context) (*llm.StreamRequest, error) {
	project, err := loadProject(ctx, t.gen.projectRepo, t.projectID)
	if err != nil {
		return nil, err
	}

	content := t.opts.Content
	if t.opts.ChapterID != "" {
		chapter, err := t.gen.chapterRepo.GetByID(ctx, t.opts.ChapterID)
		if err != nil {
			return nil, err
		}
		if chapter == nil || chapter.ProjectID != t.projectID {
			return nil, apperrors.ErrChapterNotFound.Clone().WithDetail("chapter " + t.opts.ChapterID)
		}
		content = chapter.Content
	}
	if content == "" {
		return nil, apperrors.ErrInvalidParam.Clone().WithDetail("nothing to polish")
	}
	t.sourceRunes = utf8.RuneCountInString(content)

	instruction := t.opts.Instruction
	if instruction == "" {
		instruction = "提升语言流畅度与画面感"
	}
	style, _ := writingStyle(project)
	vars := map[string]any{
		"content":       content,
		"instruction":   instruction,
		"writing_style": style,
	}
	msgs, err := formatPrompt(ctx, t.gen.prompts, prompt.PromptPolishV1, vars)
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

// EstimateTotalRunes 润色产出与原文等量级
func (t *polishTask) EstimateTotalRunes() int {
	return t.sourceRunes
}

// Commit 润色不持久化
func (t *polishTask) Commit(ctx context.Context, output string) error {
	return nil
}
