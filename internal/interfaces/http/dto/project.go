package dto

import "novel-studio-api/internal/domain/entity"

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description"`
	Genre       string  `json:"genre" binding:"max=100"`
	TargetWords int     `json:"target_words" binding:"min=0"`
	POV         string  `json:"pov"`
	Style       string  `json:"writing_style"`
	Temperature float64 `json:"temperature" binding:"min=0,max=2"`
}

// UpdateProjectRequest 更新项目请求
// current_words 由章节字数推导，不接受客户端提交。
type UpdateProjectRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=255"`
	Description *string  `json:"description"`
	Genre       *string  `json:"genre" binding:"omitempty,max=100"`
	TargetWords *int     `json:"target_words" binding:"omitempty,min=0"`
	Status      *string  `json:"status"`
	POV         *string  `json:"pov"`
	Style       *string  `json:"writing_style"`
	Temperature *float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
}

// UpdateWorldSettingsRequest 更新世界观设置请求
type UpdateWorldSettingsRequest struct {
	TimePeriod string   `json:"time_period"`
	Location   string   `json:"location"`
	Atmosphere string   `json:"atmosphere"`
	Rules      []string `json:"rules"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	*entity.Project
}

// WizardStateResponse 向导状态响应
type WizardStateResponse struct {
	Phase     string `json:"phase"`
	Step      int    `json:"step"`
	Completed bool   `json:"completed"`
}

// WizardAdvanceRequest 向导推进请求
type WizardAdvanceRequest struct {
	Phase string `json:"phase" binding:"required"`
}
