package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/application/consistency"
	"novel-studio-api/internal/application/story"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/interfaces/http/dto"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	chapterRepo repository.ChapterRepository
	validator   *story.DependencyValidator
	guard       *consistency.Guard
	generator   *story.ChapterGenerator
	stream      *StreamHandler
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(
	chapterRepo repository.ChapterRepository,
	validator *story.DependencyValidator,
	guard *consistency.Guard,
	generator *story.ChapterGenerator,
	stream *StreamHandler,
) *ChapterHandler {
	return &ChapterHandler{
		chapterRepo: chapterRepo,
		validator:   validator,
		guard:       guard,
		generator:   generator,
		stream:      stream,
	}
}

// List 获取项目章节列表
// @Summary 获取项目章节列表
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]entity.Chapter]
// @Router /v1/projects/{pid}/chapters [get]
func (h *ChapterHandler) List(c *gin.Context) {
	chapters, err := h.chapterRepo.ListByProject(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list chapters", err)
		dto.InternalError(c, "failed to list chapters")
		return
	}
	dto.Success(c, chapters)
}

// Get 获取章节详情
// @Summary 获取章节详情
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[entity.Chapter]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [get]
func (h *ChapterHandler) Get(c *gin.Context) {
	chapter, ok := h.loadChapter(c)
	if !ok {
		return
	}
	dto.Success(c, chapter)
}

// Update 更新章节
// @Summary 更新章节
// @Description 提交内容时字数由服务端重算，word_count 不接受客户端值
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Param request body dto.UpdateChapterRequest true "更新章节请求"
// @Success 200 {object} dto.Response[entity.Chapter]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [put]
func (h *ChapterHandler) Update(c *gin.Context) {
	chapter, ok := h.loadChapter(c)
	if !ok {
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if req.Title != nil {
		chapter.Title = *req.Title
	}
	if req.Summary != nil {
		chapter.Summary = *req.Summary
	}
	if req.Status != nil {
		chapter.Status = entity.ChapterStatus(*req.Status)
	}
	contentChanged := req.Content != nil
	if contentChanged {
		chapter.SetContent(*req.Content)
		chapter.IncrementVersion()
	}

	if contentChanged {
		// 内容写入与项目总字数重算在同一事务内完成
		if err := h.guard.UpdateChapterContent(c.Request.Context(), chapter); err != nil {
			logger.Error(c.Request.Context(), "failed to update chapter", err)
			dto.InternalError(c, "failed to update chapter")
			return
		}
	} else if err := h.chapterRepo.Update(c.Request.Context(), chapter); err != nil {
		logger.Error(c.Request.Context(), "failed to update chapter", err)
		dto.InternalError(c, "failed to update chapter")
		return
	}
	dto.Success(c, chapter)
}

// CanGenerate 章节生成前置检查
// @Summary 章节生成前置检查
// @Description 返回是否允许生成与阻塞章节编号列表（升序）
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.CanGenerateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/can-generate [get]
func (h *ChapterHandler) CanGenerate(c *gin.Context) {
	result, err := h.validator.CheckChapter(c.Request.Context(), dto.BindProjectID(c), dto.BindChapterID(c))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.CanGenerateResponse{
		Allowed:          result.Allowed,
		BlockingChapters: result.BlockingChapters,
	})
}

// Generate 流式生成章节正文
// @Summary 流式生成章节正文
// @Description 前置章节未满足时返回 422，目标已有运行时返回 409
// @Tags Chapters
// @Accept json
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Param request body dto.GenerateChapterRequest false "生成参数"
// @Success 200 "SSE stream"
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/generate [post]
func (h *ChapterHandler) Generate(c *gin.Context) {
	var req dto.GenerateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	task := h.generator.NewTask(dto.BindProjectID(c), dto.BindChapterID(c), story.GenerateOptions{
		Provider:    req.Provider,
		Model:       req.Model,
		TargetWords: req.TargetWords,
	})
	h.stream.Run(c, task)
}

// RecomputeWords 重算章节字数
// @Summary 重算章节字数
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[entity.Chapter]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/recompute-words [post]
func (h *ChapterHandler) RecomputeWords(c *gin.Context) {
	chapter, err := h.guard.RecomputeChapterWords(c.Request.Context(), dto.BindChapterID(c))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, chapter)
}

func (h *ChapterHandler) loadChapter(c *gin.Context) (*entity.Chapter, bool) {
	chapterID := dto.BindChapterID(c)
	chapter, err := h.chapterRepo.GetByID(c.Request.Context(), chapterID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get chapter", err, "chapter_id", chapterID)
		dto.InternalError(c, "failed to get chapter")
		return nil, false
	}
	if chapter == nil || chapter.ProjectID != dto.BindProjectID(c) {
		dto.FromError(c, apperrors.ErrChapterNotFound.Clone().WithDetail("chapter "+chapterID))
		return nil, false
	}
	return chapter, true
}
