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

// OutlineHandler 大纲处理器
type OutlineHandler struct {
	outlineRepo repository.OutlineRepository
	guard       *consistency.Guard
	generator   *story.OutlineGenerator
	stream      *StreamHandler
}

// NewOutlineHandler 创建大纲处理器
func NewOutlineHandler(
	outlineRepo repository.OutlineRepository,
	guard *consistency.Guard,
	generator *story.OutlineGenerator,
	stream *StreamHandler,
) *OutlineHandler {
	return &OutlineHandler{
		outlineRepo: outlineRepo,
		guard:       guard,
		generator:   generator,
		stream:      stream,
	}
}

// List 获取项目大纲列表
// @Summary 获取项目大纲列表
// @Tags Outlines
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]entity.Outline]
// @Router /v1/projects/{pid}/outlines [get]
func (h *OutlineHandler) List(c *gin.Context) {
	outlines, err := h.outlineRepo.ListByProject(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list outlines", err)
		dto.InternalError(c, "failed to list outlines")
		return
	}
	dto.Success(c, outlines)
}

// Create 追加大纲条目
// @Summary 追加大纲条目
// @Description 新条目编号接在当前最大编号之后，并同步创建配对章节
// @Tags Outlines
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.CreateOutlineRequest true "创建大纲请求"
// @Success 201 {object} dto.Response[entity.Outline]
// @Router /v1/projects/{pid}/outlines [post]
func (h *OutlineHandler) Create(c *gin.Context) {
	var req dto.CreateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	projectID := dto.BindProjectID(c)
	ctx := c.Request.Context()

	outline := entity.NewOutline(projectID, 0, req.Title, req.Summary)
	if req.PlotStage != "" {
		outline.PlotStage = req.PlotStage
	}

	// 大纲与配对章节在同一事务内创建
	if _, err := h.guard.CreateOutline(ctx, outline); err != nil {
		logger.Error(ctx, "failed to create outline", err)
		dto.InternalError(c, "failed to create outline")
		return
	}
	dto.Created(c, outline)
}

// Update 更新大纲条目
// @Summary 更新大纲条目
// @Tags Outlines
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param oid path string true "大纲 ID"
// @Param request body dto.UpdateOutlineRequest true "更新大纲请求"
// @Success 200 {object} dto.Response[entity.Outline]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/outlines/{oid} [put]
func (h *OutlineHandler) Update(c *gin.Context) {
	outline, ok := h.loadOutline(c)
	if !ok {
		return
	}

	var req dto.UpdateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if req.Title != nil {
		outline.Title = *req.Title
	}
	if req.Summary != nil {
		outline.Summary = *req.Summary
	}
	if req.PlotStage != nil {
		outline.PlotStage = *req.PlotStage
	}

	if err := h.outlineRepo.Update(c.Request.Context(), outline); err != nil {
		logger.Error(c.Request.Context(), "failed to update outline", err)
		dto.InternalError(c, "failed to update outline")
		return
	}
	dto.Success(c, outline)
}

// Delete 删除大纲条目
// @Summary 删除大纲条目
// @Description 同时删除配对章节并收拢编号缺口
// @Tags Outlines
// @Param pid path string true "项目 ID"
// @Param oid path string true "大纲 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/outlines/{oid} [delete]
func (h *OutlineHandler) Delete(c *gin.Context) {
	if err := h.guard.DeleteOutline(c.Request.Context(), dto.BindProjectID(c), dto.BindOutlineID(c)); err != nil {
		dto.FromError(c, err)
		return
	}
	dto.NoContent(c)
}

// Reorder 重排大纲
// @Summary 重排大纲
// @Description 按请求中的 ID 顺序重新分配 1..N 编号，同步配对章节
// @Tags Outlines
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.ReorderOutlinesRequest true "重排请求"
// @Success 200 {object} dto.Response[dto.ReorderOutlinesResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/outlines/reorder [post]
func (h *OutlineHandler) Reorder(c *gin.Context) {
	var req dto.ReorderOutlinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.guard.Reorder(c.Request.Context(), dto.BindProjectID(c), req.OutlineIDs)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ReorderOutlinesResponse{
		Outlines:            result.Outlines,
		UpdatedOutlineCount: result.UpdatedOutlines,
		UpdatedChapterCount: result.UpdatedChapters,
	})
}

// Generate 流式生成大纲
// @Summary 流式生成大纲
// @Description mode 为 auto/new/continue，auto 在已有大纲时续写
// @Tags Outlines
// @Accept json
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Param request body dto.GenerateOutlineRequest false "生成参数"
// @Success 200 "SSE stream"
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/outlines/generate [post]
func (h *OutlineHandler) Generate(c *gin.Context) {
	var req dto.GenerateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	task := h.generator.NewTask(dto.BindProjectID(c), story.OutlineOptions{
		Mode:         story.OutlineMode(req.Mode),
		ChapterCount: req.ChapterCount,
		PlotStage:    req.PlotStage,
		Provider:     req.Provider,
		Model:        req.Model,
	})
	h.stream.Run(c, task)
}

func (h *OutlineHandler) loadOutline(c *gin.Context) (*entity.Outline, bool) {
	outlineID := dto.BindOutlineID(c)
	outline, err := h.outlineRepo.GetByID(c.Request.Context(), outlineID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get outline", err, "outline_id", outlineID)
		dto.InternalError(c, "failed to get outline")
		return nil, false
	}
	if outline == nil || outline.ProjectID != dto.BindProjectID(c) {
		dto.FromError(c, apperrors.ErrOutlineNotFound.Clone().WithDetail("outline "+outlineID))
		return nil, false
	}
	return outline, true
}
