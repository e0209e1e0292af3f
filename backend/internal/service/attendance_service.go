package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/geofence"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
	apperrors "absensi-kampus/backend/pkg/errors"
	"absensi-kampus/backend/pkg/metrics"
)

// 面向终端用户的提示文案
const (
	msgInside      = "Absensi tercatat (di lokasi)."
	msgOutside     = "Absensi tercatat: absensi diluar lokasi universitas buana perjuangan"
	msgCodeValid   = " (kode valid)"
	msgCodeInvalid = " (kode tidak valid)"
)

// ── 签到模块业务错误 ──

var (
	ErrInvalidCoordinates = fmt.Errorf("%w: lat & lng required", apperrors.ErrInvalidInput)
)

// AttendanceService 签到业务接口
type AttendanceService interface {
	// Record 校验围栏与签到码后写入一条签到记录
	// 签到码无效不会拒绝签到，仅体现在 CodeValid 中
	Record(ctx context.Context, userID string, req *dto.SubmitAttendanceRequest) (*dto.AttendanceResultResponse, error)
	List(ctx context.Context, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, int64, error)
	ListMine(ctx context.Context, userID string, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, int64, error)
}

type attendanceService struct {
	repo    *repository.Repository
	campus  CampusService
	codes   CodeService
	metrics metrics.Metrics
	logger  *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	campus CampusService,
	codes CodeService,
	m metrics.Metrics,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:    repo,
		campus:  campus,
		codes:   codes,
		metrics: m,
		logger:  logger,
	}
}

// ────────────────────── Record ──────────────────────

func (s *attendanceService) Record(ctx context.Context, userID string, req *dto.SubmitAttendanceRequest) (*dto.AttendanceResultResponse, error) {
	// 1. 坐标校验
	if req.Lat == nil || req.Lng == nil {
		return nil, ErrInvalidCoordinates
	}
	point := geofence.Point{Lat: *req.Lat, Lng: *req.Lng}
	if !point.Valid() {
		return nil, ErrInvalidCoordinates
	}

	// 2. 围栏判定
	result := geofence.Evaluate(point, s.campus.Resolve(ctx))

	// 3. 签到码校验（仅提示）
	var codeUsed *string
	var codeValid *bool
	codeLabel := metrics.CodeAbsent
	if req.Code != nil {
		if code := strings.TrimSpace(*req.Code); code != "" {
			valid, err := s.codes.IsValid(ctx, code)
			if err != nil {
				return nil, err
			}
			codeUsed = &code
			codeValid = &valid
			codeLabel = metrics.CodeInvalid
			if valid {
				codeLabel = metrics.CodeValid
			}
		}
	}

	// 4. 写入记录
	record := &model.Attendance{
		UserID:   userID,
		Lat:      point.Lat,
		Lng:      point.Lng,
		CodeUsed: codeUsed,
		Inside:   result.Inside,
	}
	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		s.logger.Error("写入签到记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
	}

	s.metrics.ObserveAttendance(result.Inside, codeLabel)

	return &dto.AttendanceResultResponse{
		Inside:         result.Inside,
		DistanceMeters: int64(math.Round(result.DistanceMeters)),
		CodeValid:      codeValid,
		Message:        resultMessage(result.Inside, codeValid),
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *attendanceService) List(ctx context.Context, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, int64, error) {
	records, total, err := s.repo.Attendance.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出签到记录失败", zap.Error(err))
		return nil, 0, err
	}
	return toAttendanceResponses(records), total, nil
}

func (s *attendanceService) ListMine(ctx context.Context, userID string, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, int64, error) {
	records, total, err := s.repo.Attendance.ListByUser(ctx, userID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出个人签到记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return toAttendanceResponses(records), total, nil
}

// ── 内部辅助方法 ──

func resultMessage(inside bool, codeValid *bool) string {
	msg := msgOutside
	if inside {
		msg = msgInside
	}
	if codeValid != nil {
		if *codeValid {
			msg += msgCodeValid
		} else {
			msg += msgCodeInvalid
		}
	}
	return msg
}

func toAttendanceResponses(records []model.Attendance) []dto.AttendanceResponse {
	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		a := &records[i]
		result = append(result, dto.AttendanceResponse{
			ID:        a.AttendanceID,
			UserID:    a.UserID,
			Username:  a.Username(),
			Lat:       a.Lat,
			Lng:       a.Lng,
			CodeUsed:  a.CodeUsed,
			Inside:    a.Inside,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return result
}
