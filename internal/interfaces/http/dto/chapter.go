package dto

// UpdateChapterRequest 更新章节请求
// word_count 由内容推导，不接受客户端提交。
type UpdateChapterRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Content *string `json:"content"`
	Summary *string `json:"summary"`
	Status  *string `json:"status" binding:"omitempty,oneof=draft generating review completed"`
}

// GenerateChapterRequest 生成章节正文请求
type GenerateChapterRequest struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	TargetWords int    `json:"target_words" binding:"omitempty,min=100,max=20000"`
}

// CanGenerateResponse 章节生成前置检查响应
type CanGenerateResponse struct {
	Allowed          bool  `json:"allowed"`
	BlockingChapters []int `json:"blocking_chapters"`
}

// PolishRequest 润色请求
type PolishRequest struct {
	ChapterID   string `json:"chapter_id"`
	Content     string `json:"content"`
	Instruction string `json:"instruction"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
}
