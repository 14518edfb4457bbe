package dto

import "novel-studio-api/internal/domain/entity"

// CreateOutlineRequest 创建大纲请求
type CreateOutlineRequest struct {
	Title     string `json:"title" binding:"required,max=255"`
	Summary   string `json:"summary"`
	PlotStage string `json:"plot_stage" binding:"omitempty,oneof=development climax ending"`
}

// UpdateOutlineRequest 更新大纲请求
// order_index 不在此处修改，重排走 reorder 接口。
type UpdateOutlineRequest struct {
	Title     *string `json:"title" binding:"omitempty,max=255"`
	Summary   *string `json:"summary"`
	PlotStage *string `json:"plot_stage" binding:"omitempty,oneof=development climax ending"`
}

// ReorderOutlinesRequest 大纲重排请求
// 只携带期望的 ID 顺序，新的编号由服务端按位置重新分配。
type ReorderOutlinesRequest struct {
	OutlineIDs []string `json:"outline_ids" binding:"required,min=1"`
}

// ReorderOutlinesResponse 大纲重排结果
// 计数为本次实际改写的大纲与章节行数，重排与重编号同步完成。
type ReorderOutlinesResponse struct {
	Outlines            []*entity.Outline `json:"outlines"`
	UpdatedOutlineCount int               `json:"updated_outline_count"`
	UpdatedChapterCount int               `json:"updated_chapter_count"`
}

// GenerateOutlineRequest 生成大纲请求
type GenerateOutlineRequest struct {
	Mode         string `json:"mode" binding:"omitempty,oneof=auto new continue"`
	ChapterCount int    `json:"chapter_count" binding:"omitempty,min=1,max=50"`
	PlotStage    string `json:"plot_stage" binding:"omitempty,oneof=development climax ending"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
}
