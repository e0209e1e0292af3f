package repository

import (
	"context"

	"gorm.io/gorm"

	"absensi-kampus/backend/internal/model"
)

// AttendanceRepository 签到记录数据访问接口（仅追加）
type AttendanceRepository interface {
	Create(ctx context.Context, a *model.Attendance) error
	List(ctx context.Context, offset, limit int) ([]model.Attendance, int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, int64, error)
	// ListAll 按创建时间倒序返回全部记录（导出用）
	ListAll(ctx context.Context) ([]model.Attendance, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// Create 单行插入，由数据库保证原子性
func (r *attendanceRepo) Create(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).Omit("User").Create(a).Error
}

func (r *attendanceRepo) List(ctx context.Context, offset, limit int) ([]model.Attendance, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(&model.Attendance{}), offset, limit)
}

func (r *attendanceRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("user_id = ?", userID)
	return r.page(db, offset, limit)
}

func (r *attendanceRepo) ListAll(ctx context.Context) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) page(db *gorm.DB, offset, limit int) ([]model.Attendance, int64, error) {
	var records []model.Attendance
	var total int64

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
