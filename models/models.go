// models/models.go
package models

import (
	"time"
)

// Game modes.
const (
	ModeSolo   = "solo"
	ModeVersus = "versus"
)

// GameRecord 游戏记录模型
// The JSON shape is the wire format badges upload; the badge-side queue
// marshals the same fields.
type GameRecord struct {
	ID       string    `json:"id"`
	Badge    string    `json:"badge"`
	Mode     string    `json:"mode"`
	Rounds   int       `json:"rounds"`
	DidWin   bool      `json:"did_win"`
	Peer     string    `json:"peer,omitempty"`
	Seed     uint32    `json:"seed,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

// BadgeStats 徽章统计信息
type BadgeStats struct {
	Badge       string `json:"badge"`
	TotalGames  int    `json:"total_games"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	VersusGames int    `json:"versus_games"`
	BestRounds  int    `json:"best_rounds"`
}
