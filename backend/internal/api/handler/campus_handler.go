package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/service"
	"absensi-kampus/backend/pkg/response"
)

// CampusHandler 校园围栏模块 HTTP 处理器
type CampusHandler struct {
	campusSvc service.CampusService
}

// NewCampusHandler 创建 CampusHandler
func NewCampusHandler(campusSvc service.CampusService) *CampusHandler {
	return &CampusHandler{campusSvc: campusSvc}
}

// Get 当前生效的校园围栏
// GET /api/v1/campus
func (h *CampusHandler) Get(c *gin.Context) {
	response.OK(c, h.campusSvc.Get(c.Request.Context()))
}

// Update 更新校园围栏
// PUT /api/v1/admin/campus
func (h *CampusHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "lat & lng required")
		return
	}

	result, err := h.campusSvc.Update(c.Request.Context(), &req, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCampus):
			response.BadRequest(c, 13001, "lat & lng required")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
