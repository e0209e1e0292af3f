package dto

// ── 校园围栏模块 DTO ──

// UpdateCampusRequest 更新校园围栏请求
// RadiusM 缺省或非正数时回退为 200 米
type UpdateCampusRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	RadiusM *float64 `json:"radius_m"`
}

// CampusResponse 当前生效的校园围栏
type CampusResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
}
