package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is a key/value row; values are JSON documents.
type Setting struct {
	Key       string         `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Value     datatypes.JSON `json:"value" gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (Setting) TableName() string {
	return "settings"
}

// SettingSpecialUsers holds the JSON array of privileged voter identities.
const SettingSpecialUsers = "special_users"
