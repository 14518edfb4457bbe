package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/application/story"
	"novel-studio-api/internal/application/wizard"
	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/interfaces/http/dto"
)

// WizardHandler 创作向导处理器
type WizardHandler struct {
	sequencer *wizard.Sequencer
	generator *story.WizardGenerator
	stream    *StreamHandler
}

// NewWizardHandler 创建向导处理器
func NewWizardHandler(sequencer *wizard.Sequencer, generator *story.WizardGenerator, stream *StreamHandler) *WizardHandler {
	return &WizardHandler{
		sequencer: sequencer,
		generator: generator,
		stream:    stream,
	}
}

// State 获取向导状态
// @Summary 获取向导状态
// @Tags Wizard
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.WizardStateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/wizard [get]
func (h *WizardHandler) State(c *gin.Context) {
	state, err := h.sequencer.Current(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, toWizardState(state))
}

// Advance 推进向导阶段
// @Summary 推进向导阶段
// @Description 阶段只能前进，回退返回 409
// @Tags Wizard
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.WizardAdvanceRequest true "目标阶段"
// @Success 200 {object} dto.Response[dto.WizardStateResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/wizard/advance [post]
func (h *WizardHandler) Advance(c *gin.Context) {
	var req dto.WizardAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	state, err := h.sequencer.Advance(c.Request.Context(), dto.BindProjectID(c), entity.WizardPhase(req.Phase))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, toWizardState(state))
}

// GenerateWorldbuilding 流式生成世界观
// @Summary 流式生成世界观
// @Tags Wizard
// @Accept json
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Param request body dto.GenerateWorldbuildingRequest false "生成参数"
// @Success 200 "SSE stream"
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/wizard/worldbuilding/generate [post]
func (h *WizardHandler) GenerateWorldbuilding(c *gin.Context) {
	var req dto.GenerateWorldbuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	task := h.generator.NewWorldbuildingTask(dto.BindProjectID(c), story.GenerateOptions{
		Provider: req.Provider,
		Model:    req.Model,
	})
	h.stream.Run(c, task)
}

// GenerateCharacters 流式生成角色
// @Summary 流式生成角色
// @Tags Wizard
// @Accept json
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Param request body dto.GenerateCharactersRequest false "生成参数"
// @Success 200 "SSE stream"
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/wizard/characters/generate [post]
func (h *WizardHandler) GenerateCharacters(c *gin.Context) {
	var req dto.GenerateCharactersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	task := h.generator.NewCharactersTask(dto.BindProjectID(c), req.CharacterCount, story.GenerateOptions{
		Provider: req.Provider,
		Model:    req.Model,
	})
	h.stream.Run(c, task)
}

func toWizardState(state *wizard.State) dto.WizardStateResponse {
	return dto.WizardStateResponse{
		Phase:     string(state.Phase),
		Step:      state.Step,
		Completed: state.Completed,
	}
}
