package dto

// ── 签到模块 DTO ──

// SubmitAttendanceRequest 提交签到请求
// 坐标使用指针区分“缺失”与 0 值
type SubmitAttendanceRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Code *string  `json:"code"`
}

// AttendanceResultResponse 签到结果
type AttendanceResultResponse struct {
	Inside         bool   `json:"inside"`
	DistanceMeters int64  `json:"distance_m"`
	CodeValid      *bool  `json:"code_valid,omitempty"` // 仅在提交了签到码时返回
	Message        string `json:"message"`
}

// AttendanceListRequest 签到记录列表查询参数
type AttendanceListRequest struct {
	PaginationRequest
}

// AttendanceResponse 签到记录
type AttendanceResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Username  string  `json:"username"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	CodeUsed  *string `json:"code_used"`
	Inside    bool    `json:"inside"`
	CreatedAt string  `json:"created_at"`
}
