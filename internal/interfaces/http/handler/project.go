package handler

import (
	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/application/consistency"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/interfaces/http/dto"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	guard       *consistency.Guard
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, guard *consistency.Guard) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		guard:       guard,
	}
}

// Create 创建项目
// @Summary 创建项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "创建项目请求"
// @Success 201 {object} dto.Response[entity.Project]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	project := entity.NewProject(req.Title)
	project.Description = req.Description
	project.Genre = req.Genre
	project.TargetWords = req.TargetWords
	project.Settings = &entity.ProjectSettings{
		WritingStyle: req.Style,
		POV:          req.POV,
		Temperature:  req.Temperature,
	}

	if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
		logger.Error(c.Request.Context(), "failed to create project", err)
		dto.InternalError(c, "failed to create project")
		return
	}
	dto.Created(c, project)
}

// Get 获取项目详情
// @Summary 获取项目详情
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[entity.Project]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}
	dto.Success(c, project)
}

// List 获取项目列表
// @Summary 获取项目列表
// @Tags Projects
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]entity.Project]
// @Router /v1/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.projectRepo.List(c.Request.Context(), repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list projects", err)
		dto.InternalError(c, "failed to list projects")
		return
	}
	dto.SuccessWithPage(c, result.Items, dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}

// Update 更新项目
// @Summary 更新项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.UpdateProjectRequest true "更新项目请求"
// @Success 200 {object} dto.Response[entity.Project]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Genre != nil {
		project.Genre = *req.Genre
	}
	if req.TargetWords != nil {
		project.TargetWords = *req.TargetWords
	}
	if req.Status != nil {
		project.Status = entity.ProjectStatus(*req.Status)
	}
	if project.Settings == nil {
		project.Settings = &entity.ProjectSettings{}
	}
	if req.Style != nil {
		project.Settings.WritingStyle = *req.Style
	}
	if req.POV != nil {
		project.Settings.POV = *req.POV
	}
	if req.Temperature != nil {
		project.Settings.Temperature = *req.Temperature
	}

	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		logger.Error(c.Request.Context(), "failed to update project", err)
		dto.InternalError(c, "failed to update project")
		return
	}
	dto.Success(c, project)
}

// Delete 删除项目
// @Summary 删除项目
// @Tags Projects
// @Param pid path string true "项目 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	if _, ok := h.loadProject(c); !ok {
		return
	}
	if err := h.projectRepo.Delete(c.Request.Context(), dto.BindProjectID(c)); err != nil {
		logger.Error(c.Request.Context(), "failed to delete project", err)
		dto.InternalError(c, "failed to delete project")
		return
	}
	dto.NoContent(c)
}

// UpdateWorldSettings 更新世界观设置
// @Summary 更新世界观设置
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.UpdateWorldSettingsRequest true "世界观设置"
// @Success 200 {object} dto.Response[entity.WorldSettings]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/world-settings [put]
func (h *ProjectHandler) UpdateWorldSettings(c *gin.Context) {
	if _, ok := h.loadProject(c); !ok {
		return
	}

	var req dto.UpdateWorldSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ws := &entity.WorldSettings{
		TimePeriod: req.TimePeriod,
		Location:   req.Location,
		Atmosphere: req.Atmosphere,
		Rules:      req.Rules,
	}
	if err := h.projectRepo.UpdateWorldSettings(c.Request.Context(), dto.BindProjectID(c), ws); err != nil {
		logger.Error(c.Request.Context(), "failed to update world settings", err)
		dto.InternalError(c, "failed to update world settings")
		return
	}
	dto.Success(c, ws)
}

// RecomputeWords 重算项目总字数
// @Summary 重算项目总字数
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[map[string]int]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/recompute-words [post]
func (h *ProjectHandler) RecomputeWords(c *gin.Context) {
	if _, ok := h.loadProject(c); !ok {
		return
	}
	total, err := h.guard.RecomputeProjectWords(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, gin.H{"current_words": total})
}

// loadProject 加载项目，不存在时直接写 404
func (h *ProjectHandler) loadProject(c *gin.Context) (*entity.Project, bool) {
	projectID := dto.BindProjectID(c)
	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get project", err, "project_id", projectID)
		dto.InternalError(c, "failed to get project")
		return nil, false
	}
	if project == nil {
		dto.FromError(c, apperrors.ErrProjectNotFound.Clone().WithDetail("project "+projectID))
		return nil, false
	}
	return project, true
}
