// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Outline 章节大纲条目
// OrderIndex 在项目内保持 1..N 连续，与配对章节的 ChapterNumber 一致。
type Outline struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID  string    `json:"project_id" gorm:"type:uuid;index;not null"`
	OrderIndex int       `json:"order_index" gorm:"not null"`
	Title      string    `json:"title,omitempty" gorm:"type:varchar(255)"`
	Summary    string    `json:"summary,omitempty" gorm:"type:text"`
	PlotStage  string    `json:"plot_stage,omitempty" gorm:"type:varchar(50)"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Outline) TableName() string {
	return "outlines"
}

// NewOutline 创建大纲条目
func NewOutline(projectID string, orderIndex int, title, summary string) *Outline {
	now := time.Now()
	return &Outline{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		OrderIndex: orderIndex,
		Title:      title,
		Summary:    summary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
