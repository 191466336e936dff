package cache

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pathway-gateway/models"
)

// GormCache 基于 gorm 的持久化缓存，表结构见 models.VideoCache
type GormCache struct {
	db *gorm.DB
}

// NewGormCache 调用方负责先执行 models.AutoMigrate
func NewGormCache(db *gorm.DB) *GormCache {
	return &GormCache{db: db}
}

func (c *GormCache) Lookup(ctx context.Context, query string) (string, bool, error) {
	var row models.VideoCache
	err := c.db.WithContext(ctx).Where("query = ?", query).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.VideoID, true, nil
}

// Store 同一 query 重复写入时覆盖 video_id (唯一索引冲突时 upsert)
func (c *GormCache) Store(ctx context.Context, query, value string) error {
	row := models.VideoCache{Query: query, VideoID: value}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query"}},
		DoUpdates: clause.AssignmentColumns([]string{"video_id"}),
	}).Create(&row).Error
}

// Count 返回缓存条目数
func (c *GormCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&models.VideoCache{}).Count(&n).Error
	return n, err
}
