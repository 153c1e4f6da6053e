// services/recorder_service.go
package services

import (
	"fmt"

	"github.com/wfunc/simonbadge/models"
	"github.com/wfunc/simonbadge/persistence"
)

type RecorderService struct {
	db persistence.Database
}

func NewRecorderService(db persistence.Database) *RecorderService {
	return &RecorderService{db: db}
}

// RecordGames validates and stores a batch of uploaded games. The whole
// batch is rejected on the first invalid record: the badge retries the batch
// as a unit, so partial acceptance would duplicate the rest forever.
func (s *RecorderService) RecordGames(records []models.GameRecord) error {
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return s.db.SaveGameRecords(records)
}

func validateRecord(r models.GameRecord) error {
	if r.ID == "" {
		return fmt.Errorf("missing id")
	}
	if r.Badge == "" {
		return fmt.Errorf("missing badge")
	}
	switch r.Mode {
	case models.ModeSolo:
	case models.ModeVersus:
		if r.Peer == "" {
			return fmt.Errorf("versus game without a peer")
		}
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	if r.Rounds < 0 {
		return fmt.Errorf("negative rounds")
	}
	if r.PlayedAt.IsZero() {
		return fmt.Errorf("missing played_at")
	}
	return nil
}

// GetBadgeStats 获取徽章统计
func (s *RecorderService) GetBadgeStats(badge string) (models.BadgeStats, error) {
	if badge == "" {
		return models.BadgeStats{}, fmt.Errorf("missing badge")
	}
	return s.db.GetBadgeStats(badge)
}

// ListGames 查询游戏记录
func (s *RecorderService) ListGames(badge string, limit int) ([]models.GameRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.db.ListGameRecords(badge, limit)
}
