package models

import (
	"time"

	"gorm.io/gorm"
)

// VideoCache YouTube 搜索结果缓存 (写一次，不更新不过期)
// Query 区分大小写，不做任何规范化
type VideoCache struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Query     string    `gorm:"uniqueIndex:idx_video_cache_query;not null" json:"query"`
	VideoID   string    `gorm:"not null" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (VideoCache) TableName() string { return "youtube_cache" }

// AttemptLog 上游调用尝试记录 (只保留最近 N 条)
type AttemptLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	RequestID  string    `gorm:"size:64" json:"request_id"`
	Provider   string    `gorm:"size:32;index" json:"provider"`
	Attempt    int       `json:"attempt"`
	PoolSize   int       `json:"pool_size"`
	KeyOrdinal int       `json:"key_ordinal"`
	MaskedKey  string    `gorm:"size:32" json:"masked_key"`
	Outcome    string    `gorm:"size:16" json:"outcome"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// AutoMigrate 自动迁移数据库结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&VideoCache{},
		&AttemptLog{},
	)
}
