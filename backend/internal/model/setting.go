package model

import "time"

// 校园围栏配置键
const (
	SettingCampusLat     = "CAMPUS_LAT"
	SettingCampusLng     = "CAMPUS_LNG"
	SettingCampusRadiusM = "CAMPUS_RADIUS_M"
)

// CampusSettingKeys 围栏相关的全部配置键
var CampusSettingKeys = []string{SettingCampusLat, SettingCampusLng, SettingCampusRadiusM}

// Setting 键值配置表，对应 settings（只更新，不删除）
type Setting struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"        json:"key"`
	Value     string    `gorm:"type:text;not null"                 json:"value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }
