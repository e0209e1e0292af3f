package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"absensi-kampus/backend/config"
	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/geofence"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
	apperrors "absensi-kampus/backend/pkg/errors"
)

// 硬编码兜底值：配置与数据库均不可用时使用
const (
	FallbackCampusLat     = -6.35
	FallbackCampusLng     = 107.30
	FallbackCampusRadiusM = 200.0
)

// ── 校园围栏模块业务错误 ──

var (
	ErrInvalidCampus = fmt.Errorf("%w: lat & lng 必须为有效数值", apperrors.ErrInvalidInput)
)

// CampusService 校园围栏配置业务接口
type CampusService interface {
	// Resolve 返回当前生效的围栏，永不失败
	Resolve(ctx context.Context) geofence.Fence
	Get(ctx context.Context) *dto.CampusResponse
	Update(ctx context.Context, req *dto.UpdateCampusRequest, callerID string) (*dto.CampusResponse, error)
	// EnsureDefaults 启动时写入缺失的默认配置
	EnsureDefaults(ctx context.Context) error
}

type campusService struct {
	repo     *repository.Repository
	defaults geofence.Fence
	logger   *zap.Logger
}

// NewCampusService 创建 CampusService 实例
func NewCampusService(cfg *config.CampusConfig, repo *repository.Repository, logger *zap.Logger) CampusService {
	return &campusService{
		repo:     repo,
		defaults: configuredDefaults(cfg),
		logger:   logger,
	}
}

// ────────────────────── Resolve ──────────────────────

func (s *campusService) Resolve(ctx context.Context) geofence.Fence {
	values, err := s.repo.Setting.GetMany(ctx, model.CampusSettingKeys)
	if err != nil {
		// 读取失败时降级为默认值，不影响签到
		s.logger.Warn("读取校园配置失败，使用默认值", zap.Error(err))
		values = nil
	}

	return geofence.Fence{
		Center: geofence.Point{
			Lat: parseCoordinate(values[model.SettingCampusLat], s.defaults.Center.Lat),
			Lng: parseCoordinate(values[model.SettingCampusLng], s.defaults.Center.Lng),
		},
		RadiusMeters: parseRadius(values[model.SettingCampusRadiusM], s.defaults.RadiusMeters),
	}
}

func (s *campusService) Get(ctx context.Context) *dto.CampusResponse {
	return toCampusResponse(s.Resolve(ctx))
}

// ────────────────────── Update ──────────────────────

func (s *campusService) Update(ctx context.Context, req *dto.UpdateCampusRequest, callerID string) (*dto.CampusResponse, error) {
	if req.Lat == nil || req.Lng == nil {
		return nil, ErrInvalidCampus
	}
	center := geofence.Point{Lat: *req.Lat, Lng: *req.Lng}
	if !center.Valid() {
		return nil, ErrInvalidCampus
	}

	radius := FallbackCampusRadiusM
	if req.RadiusM != nil && geofence.IsFinite(*req.RadiusM) && *req.RadiusM > 0 {
		radius = *req.RadiusM
	}

	values := map[string]string{
		model.SettingCampusLat:     formatFloat(center.Lat),
		model.SettingCampusLng:     formatFloat(center.Lng),
		model.SettingCampusRadiusM: formatFloat(radius),
	}
	if err := s.repo.Setting.UpsertMany(ctx, values, callerID); err != nil {
		s.logger.Error("更新校园配置失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
	}

	s.logger.Info("校园配置已更新",
		zap.String("by", callerID),
		zap.Float64("lat", center.Lat),
		zap.Float64("lng", center.Lng),
		zap.Float64("radius_m", radius),
	)

	return toCampusResponse(geofence.Fence{Center: center, RadiusMeters: radius}), nil
}

// ────────────────────── EnsureDefaults ──────────────────────

func (s *campusService) EnsureDefaults(ctx context.Context) error {
	values := map[string]string{
		model.SettingCampusLat:     formatFloat(s.defaults.Center.Lat),
		model.SettingCampusLng:     formatFloat(s.defaults.Center.Lng),
		model.SettingCampusRadiusM: formatFloat(s.defaults.RadiusMeters),
	}
	if err := s.repo.Setting.InsertMissing(ctx, values); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
	}
	return nil
}

// ── 内部辅助方法 ──

// configuredDefaults 配置值无法解析时回退到硬编码值
func configuredDefaults(cfg *config.CampusConfig) geofence.Fence {
	if cfg == nil {
		cfg = &config.CampusConfig{}
	}
	return geofence.Fence{
		Center: geofence.Point{
			Lat: parseCoordinate(cfg.Lat, FallbackCampusLat),
			Lng: parseCoordinate(cfg.Lng, FallbackCampusLng),
		},
		RadiusMeters: parseRadius(cfg.RadiusM, FallbackCampusRadiusM),
	}
}

func parseCoordinate(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !geofence.IsFinite(v) {
		return fallback
	}
	return v
}

func parseRadius(raw string, fallback float64) float64 {
	v := parseCoordinate(raw, fallback)
	if v <= 0 {
		return fallback
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toCampusResponse(f geofence.Fence) *dto.CampusResponse {
	return &dto.CampusResponse{
		Lat:     f.Center.Lat,
		Lng:     f.Center.Lng,
		RadiusM: f.RadiusMeters,
	}
}
