// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
// RecordID is the badge-generated UUID; badges retry uploads until
// acknowledged, so it carries the dedup burden.
type GormGameRecord struct {
	gorm.Model
	RecordID string `gorm:"uniqueIndex;not null"`
	Badge    string `gorm:"index;not null"`
	GameMode string `gorm:"not null"`
	Rounds   int    `gorm:"default:0"`
	DidWin   bool   `gorm:"default:false"`
	Peer     string
	Seed     int64
	PlayedAt time.Time
}
