package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"absensi-kampus/backend/internal/model"
)

// CheckInCodeRepository 签到码数据访问接口
type CheckInCodeRepository interface {
	Create(ctx context.Context, code *model.CheckInCode) error
	// GetLatestActive 返回该码在 now 时刻仍有效的记录中最新创建的一条
	GetLatestActive(ctx context.Context, code string, now time.Time) (*model.CheckInCode, error)
	ListRecent(ctx context.Context, limit int) ([]model.CheckInCode, error)
}

type checkInCodeRepo struct {
	db *gorm.DB
}

// NewCheckInCodeRepo 创建 CheckInCodeRepository 实例
func NewCheckInCodeRepo(db *gorm.DB) CheckInCodeRepository {
	return &checkInCodeRepo{db: db}
}

func (r *checkInCodeRepo) Create(ctx context.Context, code *model.CheckInCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *checkInCodeRepo) GetLatestActive(ctx context.Context, code string, now time.Time) (*model.CheckInCode, error) {
	var c model.CheckInCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND expires_at > ?", code, now).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkInCodeRepo) ListRecent(ctx context.Context, limit int) ([]model.CheckInCode, error) {
	var codes []model.CheckInCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&codes).Error
	return codes, err
}
