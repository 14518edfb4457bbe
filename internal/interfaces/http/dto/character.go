package dto

// CreateCharacterRequest 创建角色请求
type CreateCharacterRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	Role          string `json:"role" binding:"omitempty,max=100"`
	Gender        string `json:"gender" binding:"omitempty,max=50"`
	Age           string `json:"age" binding:"omitempty,max=50"`
	Personality   string `json:"personality"`
	Background    string `json:"background"`
	Relationships string `json:"relationships"`
}

// UpdateCharacterRequest 更新角色请求
type UpdateCharacterRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=255"`
	Role          *string `json:"role" binding:"omitempty,max=100"`
	Gender        *string `json:"gender" binding:"omitempty,max=50"`
	Age           *string `json:"age" binding:"omitempty,max=50"`
	Personality   *string `json:"personality"`
	Background    *string `json:"background"`
	Relationships *string `json:"relationships"`
}

// GenerateCharactersRequest 向导角色生成请求
type GenerateCharactersRequest struct {
	CharacterCount int    `json:"character_count" binding:"omitempty,min=1,max=20"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

// GenerateWorldbuildingRequest 向导世界观生成请求
type GenerateWorldbuildingRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
