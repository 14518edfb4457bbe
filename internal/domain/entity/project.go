// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusWriting   ProjectStatus = "writing"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// WizardPhase 创作向导阶段
type WizardPhase string

const (
	WizardPhaseWorldbuilding WizardPhase = "worldbuilding"
	WizardPhaseCharacters    WizardPhase = "characters"
	WizardPhaseOutline       WizardPhase = "outline"
	WizardPhaseCompleted     WizardPhase = "completed"
)

// WorldSettings 世界观设置
type WorldSettings struct {
	TimePeriod string   `json:"time_period,omitempty"`
	Location   string   `json:"location,omitempty"`
	Atmosphere string   `json:"atmosphere,omitempty"`
	Rules      []string `json:"rules,omitempty"`
}

// ProjectSettings 项目写作设置
type ProjectSettings struct {
	DefaultChapterWords int     `json:"default_chapter_words,omitempty"`
	WritingStyle        string  `json:"writing_style,omitempty"`
	POV                 string  `json:"pov,omitempty"`
	Temperature         float64 `json:"temperature,omitempty"`
}

// Project 小说项目实体
type Project struct {
	ID            string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title         string           `json:"title" gorm:"type:varchar(255);not null"`
	Description   string           `json:"description,omitempty" gorm:"type:text"`
	Genre         string           `json:"genre,omitempty" gorm:"type:varchar(100)"`
	TargetWords   int              `json:"target_words,omitempty"`
	CurrentWords  int              `json:"current_words" gorm:"default:0"`
	Settings      *ProjectSettings `json:"settings,omitempty" gorm:"type:jsonb;serializer:json"`
	WorldSettings *WorldSettings   `json:"world_settings,omitempty" gorm:"type:jsonb;serializer:json"`
	Status        ProjectStatus    `json:"status" gorm:"type:varchar(50);default:'draft'"`
	WizardPhase   WizardPhase      `json:"wizard_phase" gorm:"type:varchar(50);default:'worldbuilding'"`
	WizardStep    int              `json:"wizard_step" gorm:"default:0"`
	CreatedAt     time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(title string) *Project {
	now := time.Now()
	return &Project{
		Title:         title,
		CurrentWords:  0,
		Status:        ProjectStatusDraft,
		WizardPhase:   WizardPhaseWorldbuilding,
		WizardStep:    0,
		Settings:      &ProjectSettings{},
		WorldSettings: &WorldSettings{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsEditable 检查项目是否可编辑
func (p *Project) IsEditable() bool {
	return p.Status == ProjectStatusDraft || p.Status == ProjectStatusWriting
}

// WizardDone 向导是否已完成
func (p *Project) WizardDone() bool {
	return p.WizardPhase == WizardPhaseCompleted
}

// phaseRank 向导阶段的顺序编号
func phaseRank(p WizardPhase) int {
	switch p {
	case WizardPhaseWorldbuilding:
		return 0
	case WizardPhaseCharacters:
		return 1
	case WizardPhaseOutline:
		return 2
	case WizardPhaseCompleted:
		return 3
	default:
		return -1
	}
}

// PhaseRank 向导阶段的顺序编号，未知阶段返回 -1
func PhaseRank(p WizardPhase) int {
	return phaseRank(p)
}
