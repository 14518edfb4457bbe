// Package entity 定义领域实体
package entity

import (
	"time"
)

// Character 角色实体
type Character struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID     string    `json:"project_id" gorm:"type:uuid;index;not null"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Role          string    `json:"role,omitempty" gorm:"type:varchar(100)"`
	Gender        string    `json:"gender,omitempty" gorm:"type:varchar(50)"`
	Age           string    `json:"age,omitempty" gorm:"type:varchar(50)"`
	Personality   string    `json:"personality,omitempty" gorm:"type:text"`
	Background    string    `json:"background,omitempty" gorm:"type:text"`
	Relationships string    `json:"relationships,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Character) TableName() string {
	return "characters"
}
