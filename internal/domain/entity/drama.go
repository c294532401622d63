// Package entity 定义领域实体
package entity

import (
	"time"
)

// Drama 剧目实体（目录事实来源，建库的输入）
type Drama struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Category    string    `json:"category,omitempty" gorm:"type:varchar(128);index"`
	CoverURL    string    `json:"cover_url,omitempty" gorm:"type:varchar(512)"`
	Episodes    int       `json:"episodes,omitempty" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Drama) TableName() string {
	return "drama"
}
