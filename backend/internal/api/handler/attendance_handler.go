package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi-kampus/backend/internal/api/middleware"
	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/service"
	apperrors "absensi-kampus/backend/pkg/errors"
	"absensi-kampus/backend/pkg/response"
)

// AttendanceHandler 签到模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Submit 提交签到
// POST /api/v1/attendance
func (h *AttendanceHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 12001, "lat & lng required")
		return
	}

	result, err := h.attendanceSvc.Record(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKWithMessage(c, result.Message, result)
}

// ListMine 当前用户的签到记录
// GET /api/v1/attendance/me
func (h *AttendanceHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	list, total, err := h.attendanceSvc.ListMine(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// List 全部签到记录（管理员）
// GET /api/v1/admin/attendances
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	list, total, err := h.attendanceSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCoordinates):
		response.BadRequest(c, 12001, "lat & lng required")
	case errors.Is(err, apperrors.ErrInvalidInput):
		response.ValidationFailed(c, err)
	default:
		response.InternalError(c)
	}
}
