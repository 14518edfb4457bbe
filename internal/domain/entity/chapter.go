// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft      ChapterStatus = "draft"
	ChapterStatusGenerating ChapterStatus = "generating"
	ChapterStatusReview     ChapterStatus = "review"
	ChapterStatusCompleted  ChapterStatus = "completed"
)

// GenerationMetadata 生成元数据
type GenerationMetadata struct {
	Model            string  `json:"model,omitempty"`
	Provider         string  `json:"provider,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	GeneratedAt      string  `json:"generated_at,omitempty"`
}

// Chapter 章节实体
// ChapterNumber 与配对大纲的 OrderIndex 始终保持一致。
type Chapter struct {
	ID                 string              `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID          string              `json:"project_id" gorm:"type:uuid;index;not null"`
	OutlineID          string              `json:"outline_id,omitempty" gorm:"type:uuid;index"`
	ChapterNumber      int                 `json:"chapter_number" gorm:"not null"`
	Title              string              `json:"title,omitempty" gorm:"type:varchar(255)"`
	Content            string              `json:"content,omitempty" gorm:"type:text"`
	Summary            string              `json:"summary,omitempty" gorm:"type:text"`
	WordCount          int                 `json:"word_count" gorm:"default:0"`
	Status             ChapterStatus       `json:"status" gorm:"type:varchar(50);default:'draft'"`
	GenerationMetadata *GenerationMetadata `json:"generation_metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	Version            int                 `json:"version" gorm:"default:1"`
	CreatedAt          time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(projectID, outlineID string, chapterNumber int, title string) *Chapter {
	now := time.Now()
	return &Chapter{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		OutlineID:     outlineID,
		ChapterNumber: chapterNumber,
		Title:         title,
		WordCount:     0,
		Status:        ChapterStatusDraft,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CountWords 统计内容字数（不含空白的 rune 数，对中英文都稳定）
func CountWords(content string) int {
	n := 0
	for _, r := range content {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// SetContent 设置章节内容并同步字数
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = CountWords(content)
	c.UpdatedAt = time.Now()
}

// HasContent 内容去除空白后是否非空
func (c *Chapter) HasContent() bool {
	return strings.TrimSpace(c.Content) != ""
}

// IsEditable 检查章节是否可编辑
func (c *Chapter) IsEditable() bool {
	return c.Status == ChapterStatusDraft || c.Status == ChapterStatusReview
}

// IncrementVersion 增加版本号
func (c *Chapter) IncrementVersion() {
	c.Version++
	c.UpdatedAt = time.Now()
}
