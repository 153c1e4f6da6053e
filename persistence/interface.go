// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/simonbadge/models"
)

// Database 数据库接口
type Database interface {
	// SaveGameRecords stores a batch, skipping records already present;
	// badges resend until acknowledged so duplicates are routine.
	SaveGameRecords(records []models.GameRecord) error
	GetBadgeStats(badge string) (models.BadgeStats, error)
	ListGameRecords(badge string, limit int) ([]models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
