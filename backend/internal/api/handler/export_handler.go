package handler

import (
	"errors"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"absensi-kampus/backend/internal/dto"
	"absensi-kampus/backend/internal/service"
	"absensi-kampus/backend/pkg/response"
)

var exportContentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendances 导出签到记录
// GET /api/v1/admin/export?format=csv|pdf|xlsx
func (h *ExportHandler) ExportAttendances(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendances(c.Request.Context(), req.Format)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, exportContentTypes[filepath.Ext(filename)], filename, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportUnsupportedFormat):
		response.BadRequest(c, 16101, "format must be csv, pdf or xlsx")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
