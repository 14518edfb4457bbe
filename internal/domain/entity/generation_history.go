// Package entity 定义领域实体
package entity

import (
	"time"
)

// GenerationHistory 生成历史记录
// 每次成功提交或失败终止的生成运行都会留下一条记录。
type GenerationHistory struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID        string    `json:"project_id" gorm:"type:uuid;index;not null"`
	RunID            string    `json:"run_id" gorm:"type:uuid;index"`
	TargetKind       string    `json:"target_kind" gorm:"type:varchar(50);not null"`
	TargetID         string    `json:"target_id,omitempty" gorm:"type:varchar(128);index"`
	Provider         string    `json:"provider,omitempty" gorm:"type:varchar(64)"`
	Model            string    `json:"model,omitempty" gorm:"type:varchar(128)"`
	PromptDigest     string    `json:"prompt_digest,omitempty" gorm:"type:varchar(64)"`
	OutputRunes      int       `json:"output_runes"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	DurationMs       int64     `json:"duration_ms"`
	Status           string    `json:"status" gorm:"type:varchar(50)"`
	ErrorCode        string    `json:"error_code,omitempty" gorm:"type:varchar(16)"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (GenerationHistory) TableName() string {
	return "generation_histories"
}
