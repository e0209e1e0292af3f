package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absensi-kampus/backend/internal/model"
)

// SettingRepository 键值配置数据访问接口
type SettingRepository interface {
	// GetMany 一次查询读取多个键，缺失的键不出现在结果中
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	// UpsertMany 在同一事务中写入多个键（后写覆盖）
	UpsertMany(ctx context.Context, values map[string]string, updatedBy string) error
	// InsertMissing 仅插入尚不存在的键
	InsertMissing(ctx context.Context, values map[string]string) error
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepo 创建 SettingRepository 实例
func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	var rows []model.Setting
	if err := r.db.WithContext(ctx).
		Where("key IN ?", keys).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Value
	}
	return result, nil
}

func (r *settingRepo) UpsertMany(ctx context.Context, values map[string]string, updatedBy string) error {
	now := time.Now()
	rows := toSettingRows(values, now)
	for i := range rows {
		rows[i].UpdatedBy = &updatedBy
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at", "updated_by"}),
		}).Create(&rows).Error
	})
}

func (r *settingRepo) InsertMissing(ctx context.Context, values map[string]string) error {
	rows := toSettingRows(values, time.Now())
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func toSettingRows(values map[string]string, now time.Time) []model.Setting {
	rows := make([]model.Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, model.Setting{Key: k, Value: v, UpdatedAt: now})
	}
	return rows
}
