package dto

// ── 导出模块 DTO ──

// ExportRequest 导出请求
type ExportRequest struct {
	Format string `form:"format"`
}
