package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/service"
	"absensi-kampus/backend/pkg/response"
)

// CodeHandler 签到码模块 HTTP 处理器
type CodeHandler struct {
	codeSvc service.CodeService
}

// NewCodeHandler 创建 CodeHandler
func NewCodeHandler(codeSvc service.CodeService) *CodeHandler {
	return &CodeHandler{codeSvc: codeSvc}
}

// Issue 生成签到码
// POST /api/v1/admin/codes
func (h *CodeHandler) Issue(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 请求体可省略，省略时使用默认有效期
	var req dto.IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.codeSvc.Issue(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleCodeError(c, err)
		return
	}

	response.Created(c, result)
}

// ListRecent 最近生成的签到码
// GET /api/v1/admin/codes
func (h *CodeHandler) ListRecent(c *gin.Context) {
	list, err := h.codeSvc.ListRecent(c.Request.Context())
	if err != nil {
		h.handleCodeError(c, err)
		return
	}

	response.OK(c, list)
}

// QRCode 签到码二维码
// GET /api/v1/admin/codes/:code/qr
func (h *CodeHandler) QRCode(c *gin.Context) {
	code := c.Param("code")

	png, err := h.codeSvc.QRCode(code)
	if err != nil {
		h.handleCodeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *CodeHandler) handleCodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidValidity):
		response.BadRequest(c, 14001, "minutes 超出允许范围")
	case errors.Is(err, service.ErrInvalidCodeText):
		response.BadRequest(c, 14002, "签到码必须为 6 位数字")
	default:
		response.InternalError(c)
	}
}
