package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"absensi-kampus/backend/config"
	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/internal/repository"
	apperrors "absensi-kampus/backend/pkg/errors"
	"absensi-kampus/backend/pkg/metrics"
)

const (
	codeMin = 100000
	codeMax = 999999

	// recentCodeLimit 管理端列表返回的签到码数量
	recentCodeLimit = 50
	qrImageSize     = 256
)

// ── 签到码模块业务错误 ──

var (
	ErrInvalidValidity = fmt.Errorf("%w: minutes 超出允许范围", apperrors.ErrInvalidInput)
	ErrInvalidCodeText = fmt.Errorf("%w: 签到码必须为 6 位数字", apperrors.ErrInvalidInput)
	ErrQRGenerateFail  = errors.New("生成二维码失败")
)

// CodeService 签到码业务接口
type CodeService interface {
	Issue(ctx context.Context, req *dto.IssueCodeRequest, callerID string) (*dto.IssueCodeResponse, error)
	// IsValid 存在同码且过期时间严格晚于当前时间的记录即为有效
	IsValid(ctx context.Context, code string) (bool, error)
	ListRecent(ctx context.Context) ([]dto.CheckInCodeResponse, error)
	// QRCode 生成签到码的 PNG 二维码
	QRCode(code string) ([]byte, error)
}

type codeService struct {
	repo    *repository.Repository
	cfg     config.CodeConfig
	metrics metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewCodeService 创建 CodeService 实例
func NewCodeService(cfg *config.CodeConfig, repo *repository.Repository, m metrics.Metrics, logger *zap.Logger) CodeService {
	return &codeService{
		repo:    repo,
		cfg:     *cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Issue ──────────────────────

func (s *codeService) Issue(ctx context.Context, req *dto.IssueCodeRequest, callerID string) (*dto.IssueCodeResponse, error) {
	minutes := s.cfg.DefaultValidityMinutes
	if req != nil && req.Minutes != nil {
		minutes = *req.Minutes
	}
	// 0 合法：生成即过期
	if minutes < 0 || minutes > s.cfg.MaxValidityMinutes {
		return nil, ErrInvalidValidity
	}

	code, err := generateCode()
	if err != nil {
		s.logger.Error("生成随机签到码失败", zap.Error(err))
		return nil, err
	}

	record := &model.CheckInCode{
		Code:      code,
		ExpiresAt: s.now().Add(time.Duration(minutes) * time.Minute),
		CreatedBy: callerID,
	}
	if err := s.repo.CheckInCode.Create(ctx, record); err != nil {
		s.logger.Error("保存签到码失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
	}

	s.metrics.ObserveCodeIssued()
	s.logger.Info("签到码已生成",
		zap.String("by", callerID),
		zap.Int("minutes", minutes),
		zap.Time("expires_at", record.ExpiresAt),
	)

	return &dto.IssueCodeResponse{
		Code:      record.Code,
		ExpiresAt: record.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── IsValid ──────────────────────

func (s *codeService) IsValid(ctx context.Context, code string) (bool, error) {
	now := s.now()
	c, err := s.repo.CheckInCode.GetLatestActive(ctx, code, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("查询签到码失败", zap.Error(err))
		return false, fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
	}
	return c.ValidAt(now), nil
}

// ────────────────────── ListRecent ──────────────────────

func (s *codeService) ListRecent(ctx context.Context) ([]dto.CheckInCodeResponse, error) {
	codes, err := s.repo.CheckInCode.ListRecent(ctx, recentCodeLimit)
	if err != nil {
		s.logger.Error("列出签到码失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.CheckInCodeResponse, 0, len(codes))
	for i := range codes {
		c := &codes[i]
		result = append(result, dto.CheckInCodeResponse{
			ID:        c.CodeID,
			Code:      c.Code,
			ExpiresAt: c.ExpiresAt.Format(time.RFC3339),
			CreatedBy: c.CreatedBy,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
			Valid:     c.ValidAt(now),
		})
	}
	return result, nil
}

// ────────────────────── QRCode ──────────────────────

func (s *codeService) QRCode(code string) ([]byte, error) {
	if !isCodeText(code) {
		return nil, ErrInvalidCodeText
	}
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("code", code), zap.Error(err))
		return nil, ErrQRGenerateFail
	}
	return png, nil
}

// ── 内部辅助方法 ──

// generateCode 在 [100000, 999999] 内均匀取值
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func isCodeText(code string) bool {
	if len(code) != 6 {
		return false
	}
	return strings.Trim(code, "0123456789") == ""
}
