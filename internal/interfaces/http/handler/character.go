package handler

import (
	"github.com/gin-gonic/gin"

	"novel-studio-api/internal/domain/entity"
	"novel-studio-api/internal/domain/repository"
	"novel-studio-api/internal/interfaces/http/dto"
	apperrors "novel-studio-api/pkg/errors"
	"novel-studio-api/pkg/logger"

	"github.com/google/uuid"
)

// CharacterHandler 角色处理器
type CharacterHandler struct {
	characterRepo repository.CharacterRepository
}

// NewCharacterHandler 创建角色处理器
func NewCharacterHandler(characterRepo repository.CharacterRepository) *CharacterHandler {
	return &CharacterHandler{characterRepo: characterRepo}
}

// List 获取项目角色列表
// @Summary 获取项目角色列表
// @Tags Characters
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]entity.Character]
// @Router /v1/projects/{pid}/characters [get]
func (h *CharacterHandler) List(c *gin.Context) {
	characters, err := h.characterRepo.ListByProject(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list characters", err)
		dto.InternalError(c, "failed to list characters")
		return
	}
	dto.Success(c, characters)
}

// Create 创建角色
// @Summary 创建角色
// @Tags Characters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param request body dto.CreateCharacterRequest true "创建角色请求"
// @Success 201 {object} dto.Response[entity.Character]
// @Router /v1/projects/{pid}/characters [post]
func (h *CharacterHandler) Create(c *gin.Context) {
	var req dto.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	character := &entity.Character{
		ID:            uuid.NewString(),
		ProjectID:     dto.BindProjectID(c),
		Name:          req.Name,
		Role:          req.Role,
		Gender:        req.Gender,
		Age:           req.Age,
		Personality:   req.Personality,
		Background:    req.Background,
		Relationships: req.Relationships,
	}
	if err := h.characterRepo.Create(c.Request.Context(), character); err != nil {
		logger.Error(c.Request.Context(), "failed to create character", err)
		dto.InternalError(c, "failed to create character")
		return
	}
	dto.Created(c, character)
}

// Update 更新角色
// @Summary 更新角色
// @Tags Characters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param chid path string true "角色 ID"
// @Param request body dto.UpdateCharacterRequest true "更新角色请求"
// @Success 200 {object} dto.Response[entity.Character]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/characters/{chid} [put]
func (h *CharacterHandler) Update(c *gin.Context) {
	character, ok := h.loadCharacter(c)
	if !ok {
		return
	}

	var req dto.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if req.Name != nil {
		character.Name = *req.Name
	}
	if req.Role != nil {
		character.Role = *req.Role
	}
	if req.Gender != nil {
		character.Gender = *req.Gender
	}
	if req.Age != nil {
		character.Age = *req.Age
	}
	if req.Personality != nil {
		character.Personality = *req.Personality
	}
	if req.Background != nil {
		character.Background = *req.Background
	}
	if req.Relationships != nil {
		character.Relationships = *req.Relationships
	}

	if err := h.characterRepo.Update(c.Request.Context(), character); err != nil {
		logger.Error(c.Request.Context(), "failed to update character", err)
		dto.InternalError(c, "failed to update character")
		return
	}
	dto.Success(c, character)
}

// Delete 删除角色
// @Summary 删除角色
// @Tags Characters
// @Param pid path string true "项目 ID"
// @Param chid path string true "角色 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/characters/{chid} [delete]
func (h *CharacterHandler) Delete(c *gin.Context) {
	if _, ok := h.loadCharacter(c); !ok {
		return
	}
	if err := h.characterRepo.Delete(c.Request.Context(), dto.BindCharacterID(c)); err != nil {
		logger.Error(c.Request.Context(), "failed to delete character", err)
		dto.InternalError(c, "failed to delete character")
		return
	}
	dto.NoContent(c)
}

func (h *CharacterHandler) loadCharacter(c *gin.Context) (*entity.Character, bool) {
	characterID := dto.BindCharacterID(c)
	character, err := h.characterRepo.GetByID(c.Request.Context(), characterID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get character", err, "character_id", characterID)
		dto.InternalError(c, "failed to get character")
		return nil, false
	}
	if character == nil || character.ProjectID != dto.BindProjectID(c) {
		dto.FromError(c, apperrors.ErrCharacterNotFound.Clone().WithDetail("character "+characterID))
		return nil, false
	}
	return character, true
}
