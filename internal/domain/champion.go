package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Champion struct {
	ID           string         `json:"id" gorm:"primaryKey"`            // e.g. "Aatrox"
	Key          string         `json:"key" gorm:"uniqueIndex;not null"` // numeric string, e.g. "266"
	Name         string         `json:"name" gorm:"not null"`
	Title        string         `json:"title"`
	ImageURL     string         `json:"imageUrl"`
	Tags         datatypes.JSON `json:"tags" gorm:"type:jsonb"`
	LastSyncedAt time.Time      `json:"lastSyncedAt"`
}
