package handler

import (
	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/application/story"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/interfaces/http/dto"
	"novel-studio-api/pkg/logger"
)

// GenerationHandler 生成辅助接口处理器（润色、历史）
type GenerationHandler struct {
	polisher    *story.PolishGenerator
	historyRepo repository.GenerationHistoryRepository
	stream      *StreamHandler
}

// NewGenerationHandler 创建生成辅助处理器
func NewGenerationHandler(
	polisher *story.PolishGenerator,
	historyRepo repository.GenerationHistoryRepository,
	stream *StreamHandler,
) *GenerationHandler {
	return &GenerationHandler{
		polisher:    polisher,
		historyRepo: historyRepo,
		stream:      stream,
	}
}

// Polish 流式润色文本
// @Summary 流式润色文本
// @Description 结果只经事件流返回，不写入章节
// @Tags Generation
// @Accept json
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Param request body dto.PolishRequest true "润色请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/polish [post]
func (h *GenerationHandler) Polish(c *gin.Context) {
	var req dto.PolishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ChapterID == "" && req.Content == "" {
		dto.BadRequest(c, "chapter_id or content is required")
		return
	}

	task := h.polisher.NewTask(dto.BindProjectID(c), story.PolishOptions{
		ChapterID:   req.ChapterID,
		Content:     req.Content,
		Instruction: req.Instruction,
		Provider:    req.Provider,
		Model:       req.Model,
	})
	h.stream.Run(c, task)
}

// History 生成历史列表
// @Summary 生成历史列表
// @Tags Generation
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]entity.GenerationHistory]
// @Router /v1/projects/{pid}/generation-history [get]
func (h *GenerationHandler) History(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.historyRepo.ListByProject(c.Request.Context(), dto.BindProjectID(c),
		repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list generation history", err)
		dto.InternalError(c, "failed to list generation history")
		return
	}
	dto.SuccessWithPage(c, result.Items, dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}
