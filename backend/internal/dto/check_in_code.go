package dto

// ── 签到码模块 DTO ──

// IssueCodeRequest 生成签到码请求，Minutes 缺省时使用配置的默认有效期
type IssueCodeRequest struct {
	Minutes *int `json:"minutes"`
}

// IssueCodeResponse 生成签到码响应
type IssueCodeResponse struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}

// CheckInCodeResponse 签到码列表项
type CheckInCodeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	Valid     bool   `json:"valid"`
}
